// Package watch converges crontabs against a desired-state file, once or
// continuously.
package watch

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/statesmith/statesmith/crontab"
)

// Policy is the desired state for any number of users' crontabs.
type Policy struct {
	Users []UserPolicy `yaml:"users"`
}

type UserPolicy struct {
	Name    string      `yaml:"name"`
	Present []EntrySpec `yaml:"present"`
	Absent  []EntrySpec `yaml:"absent"`
}

// EntrySpec mirrors crontab.Entry in YAML form. Unset schedule fields
// default to "*".
type EntrySpec struct {
	Minute     string `yaml:"minute"`
	Hour       string `yaml:"hour"`
	DayOfMonth string `yaml:"daymonth"`
	Month      string `yaml:"month"`
	DayOfWeek  string `yaml:"dayweek"`
	Command    string `yaml:"command"`
	Comment    string `yaml:"comment"`
	Identifier string `yaml:"identifier"`
}

func (s EntrySpec) Entry() crontab.Entry {
	e := crontab.Entry{
		Minute:     s.Minute,
		Hour:       s.Hour,
		DayOfMonth: s.DayOfMonth,
		Month:      s.Month,
		DayOfWeek:  s.DayOfWeek,
		Command:    s.Command,
		Comment:    s.Comment,
		Identifier: s.Identifier,
	}
	e.ApplyDefaults()
	return e
}

// LoadPolicy reads and validates a desired-state file. Unknown YAML keys
// are rejected so that a typoed field name cannot silently drop a job.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var policy Policy
	if err := unmarshalStrict(data, &policy); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, user := range policy.Users {
		if user.Name == "" {
			return nil, fmt.Errorf("%s: every users entry needs a name", path)
		}
		for _, spec := range append(append([]EntrySpec{}, user.Present...), user.Absent...) {
			if spec.Command == "" {
				return nil, fmt.Errorf("%s: user %s has an entry with no command", path, user.Name)
			}
		}
	}

	return &policy, nil
}

func unmarshalStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
