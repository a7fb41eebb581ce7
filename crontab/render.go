package crontab

import "strings"

// Render serializes doc back to crontab text. Pre lines come through
// verbatim; the marker is emitted whenever it was already present or the
// document carries managed content; managed lines follow in env, special,
// cron order. Rendering is stable: parsing the output and rendering again
// reproduces it byte for byte.
func Render(doc *Document) string {
	var b strings.Builder

	for _, line := range doc.Pre {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if doc.MarkerPresent || doc.managed() {
		b.WriteString(Marker)
		b.WriteByte('\n')
	}

	for _, line := range doc.Env {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	for _, special := range doc.Specials {
		if line, ok := commentLine(special.Comment, special.Identifier); ok {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString(special.Shorthand)
		b.WriteByte(' ')
		b.WriteString(special.Command)
		b.WriteByte('\n')
	}

	for _, cron := range doc.Crons {
		if line, ok := commentLine(cron.Comment, cron.Identifier); ok {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString(cron.Schedule())
		b.WriteByte(' ')
		b.WriteString(cron.Command)
		b.WriteByte('\n')
	}

	return b.String()
}

// commentLine builds the comment line preceding a job. A job with neither
// comment nor identifier has no comment line at all. Multi-line comments
// continue on their own "# " lines.
func commentLine(comment, identifier string) (string, bool) {
	if comment == "" && identifier == "" {
		return "", false
	}

	line := "#"
	if comment != "" {
		line += " " + strings.ReplaceAll(strings.TrimRight(comment, "\n "), "\n", "\n# ")
	}
	if identifier != "" {
		line += " " + identifierTag + identifier
	}
	return line, true
}
