// Package crontab parses per-user crontab text into a structured document
// and converges it towards a desired entry without disturbing lines it does
// not manage.
package crontab

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	fieldSeparator = regexp.MustCompile(`\S+`)
	envLineMatcher = regexp.MustCompile(`^([^\s=]+)\s*=\s*(.*)$`)
)

// scheduleFieldCount is POSIX cron: minute hour day-of-month month day-of-week.
const scheduleFieldCount = 5

// Parse reads crontab text into a Document. Everything above the marker is
// kept verbatim in Pre. Below the marker, comment lines (with an optional
// identifier token) tag the job line that follows them; env lines and
// shorthand specials are collected as-is. Malformed lines are skipped, not
// reported: a broken line must never block reconciliation of the rest of
// the file.
func Parse(reader io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(reader)

	doc := &Document{
		Pre:      []string{},
		Env:      []string{},
		Specials: []*Special{},
		Crons:    []*Entry{},
	}

	var comment, identifier string
	var haveComment bool

	resetPending := func() {
		comment = ""
		identifier = ""
		haveComment = false
	}

	for scanner.Scan() {
		line := scanner.Text()

		if !doc.MarkerPresent {
			if strings.TrimRight(line, " \t") == Marker {
				doc.MarkerPresent = true
				continue
			}
			doc.Pre = append(doc.Pre, line)
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if trimmed[0] == '@' {
			indices := fieldSeparator.FindAllStringIndex(trimmed, -1)
			if len(indices) < 2 {
				logrus.Debugf("skipping shorthand line with no command: %s", line)
				continue
			}
			doc.Specials = append(doc.Specials, &Special{
				Shorthand:  trimmed[indices[0][0]:indices[0][1]],
				Command:    trimmed[indices[1][0]:],
				Comment:    comment,
				Identifier: identifier,
			})
			resetPending()
			continue
		}

		if trimmed[0] == '#' {
			text := strings.TrimLeft(trimmed, "# \t")
			if strings.Contains(text, identifierTag) {
				parts := strings.SplitN(text, identifierTag, 2)
				text = strings.TrimRight(parts[0], " \t")
				identifier = parts[1]
			}
			if haveComment {
				comment += "\n" + text
			} else {
				comment = text
				haveComment = true
			}
			continue
		}

		if envLineMatcher.MatchString(trimmed) {
			doc.Env = append(doc.Env, trimmed)
			// A comment tags the job line directly below it; an env line in
			// between orphans it.
			resetPending()
			continue
		}

		indices := fieldSeparator.FindAllStringIndex(trimmed, -1)
		if len(indices) < scheduleFieldCount+1 {
			logrus.Debugf("skipping malformed crontab line: %s", line)
			continue
		}

		doc.Crons = append(doc.Crons, &Entry{
			Minute:     trimmed[indices[0][0]:indices[0][1]],
			Hour:       trimmed[indices[1][0]:indices[1][1]],
			DayOfMonth: trimmed[indices[2][0]:indices[2][1]],
			Month:      trimmed[indices[3][0]:indices[3][1]],
			DayOfWeek:  trimmed[indices[4][0]:indices[4][1]],
			Command:    trimmed[indices[5][0]:],
			Comment:    comment,
			Identifier: identifier,
		})
		resetPending()
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

// ParseString is a convenience wrapper for callers holding the whole file.
func ParseString(raw string) (*Document, error) {
	return Parse(strings.NewReader(raw))
}
