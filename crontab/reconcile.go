package crontab

import (
	"fmt"

	"github.com/gorhill/cronexpr"
)

// Reconcile converges raw crontab text so that target is present or absent,
// returning the new text and what changed. When nothing needs to change the
// input text is returned untouched, byte for byte.
//
// ensure-present appends a brand-new entry at the end of the managed region;
// an entry matched for update is replaced in place so unrelated jobs keep
// their order. ensure-absent removes the matched entry together with its
// comment/identifier line.
func Reconcile(raw string, target *Entry, action Action) (string, Outcome, error) {
	t := *target
	t.ApplyDefaults()

	doc, err := ParseString(raw)
	if err != nil {
		return raw, Unchanged, err
	}

	state, idx := Classify(doc, &t)

	switch action {
	case EnsurePresent:
		switch state {
		case Present:
			return raw, Unchanged, nil
		case Absent:
			doc.Crons = append(doc.Crons, &t)
			return Render(doc), Created, nil
		default:
			doc.Crons[idx] = &t
			return Render(doc), Updated, nil
		}

	case EnsureAbsent:
		if state == Absent {
			return raw, Unchanged, nil
		}
		doc.Crons = append(doc.Crons[:idx], doc.Crons[idx+1:]...)
		return Render(doc), Removed, nil
	}

	return raw, Unchanged, fmt.Errorf("unknown action %d", action)
}

// ValidateSchedule checks that the target's five schedule fields form a
// parseable cron expression. This guards writes only; existing file content
// is compared as strings and never interpreted.
func ValidateSchedule(e *Entry) error {
	t := *e
	t.ApplyDefaults()

	if _, err := cronexpr.Parse(t.Schedule()); err != nil {
		return fmt.Errorf("bad schedule %q: %w", t.Schedule(), err)
	}
	return nil
}
