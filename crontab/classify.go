package crontab

// Classify reports how target relates to the entries already in doc, along
// with the index of the matched entry (-1 when absent). It never mutates doc.
//
// Matching is two-tier to stay compatible with crontabs written before
// identifiers existed. A set identifier is authoritative: only an entry
// carrying the same identifier can match, even if some other entry's command
// is identical. Without an identifier, the first entry with an equal command
// matches.
func Classify(doc *Document, target *Entry) (State, int) {
	if target.Identifier != "" {
		for i, cron := range doc.Crons {
			if cron.Identifier != target.Identifier {
				continue
			}
			if entriesEqual(cron, target) {
				return Present, i
			}
			return Update, i
		}
		return Absent, -1
	}

	for i, cron := range doc.Crons {
		if cron.Command != target.Command {
			continue
		}
		if entriesEqual(cron, target) {
			return Present, i
		}
		return Update, i
	}
	return Absent, -1
}

// entriesEqual compares schedule fields as raw strings: "08" and "8" are
// different values. Callers are expected to normalize their own input.
func entriesEqual(a, b *Entry) bool {
	return a.Minute == b.Minute &&
		a.Hour == b.Hour &&
		a.DayOfMonth == b.DayOfMonth &&
		a.Month == b.Month &&
		a.DayOfWeek == b.DayOfWeek &&
		a.Command == b.Command &&
		a.Comment == b.Comment
}
