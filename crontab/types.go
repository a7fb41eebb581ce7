package crontab

// Marker separates user-authored lines from the region this package is
// allowed to rewrite. Lines above it are never modified or reordered.
const Marker = "# Lines below here are managed by Salt, do not edit"

// identifierTag prefixes the identifier token on a managed comment line,
// e.g. "# nightly backup SALT_CRON_IDENTIFIER:backup".
const identifierTag = "SALT_CRON_IDENTIFIER:"

// Entry is one scheduled job line, optionally preceded by a comment line
// carrying a human comment and/or an identifier token. An empty Identifier
// means "no identifier set".
type Entry struct {
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
	Command    string
	Comment    string
	Identifier string
}

// ApplyDefaults fills unset schedule fields with "*".
func (e *Entry) ApplyDefaults() {
	for _, f := range []*string{&e.Minute, &e.Hour, &e.DayOfMonth, &e.Month, &e.DayOfWeek} {
		if *f == "" {
			*f = "*"
		}
	}
}

// Schedule returns the five schedule fields joined in crontab order.
func (e *Entry) Schedule() string {
	return e.Minute + " " + e.Hour + " " + e.DayOfMonth + " " + e.Month + " " + e.DayOfWeek
}

// Special is a job using a shorthand schedule token such as "@hourly".
// Like Entry it may be tagged by a preceding comment line.
type Special struct {
	Shorthand  string
	Command    string
	Comment    string
	Identifier string
}

// Document is the whole-file representation of one user's crontab. Pre and
// Env lines are preserved verbatim; Specials and Crons keep their original
// relative order.
type Document struct {
	Pre           []string
	MarkerPresent bool
	Env           []string
	Specials      []*Special
	Crons         []*Entry
}

func (d *Document) managed() bool {
	return len(d.Env) > 0 || len(d.Specials) > 0 || len(d.Crons) > 0
}

// State describes how a target entry relates to an existing document.
type State int

const (
	Absent State = iota
	Present
	Update
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	case Update:
		return "update"
	}
	return "unknown"
}

// Action selects the direction Reconcile converges towards.
type Action int

const (
	EnsurePresent Action = iota
	EnsureAbsent
)

// Outcome reports what Reconcile did to the text.
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return "unknown"
}
