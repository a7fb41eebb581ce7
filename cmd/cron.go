package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/statesmith/statesmith/cron"
	"github.com/statesmith/statesmith/crontab"
)

var (
	cronUser string

	entryMinute     string
	entryHour       string
	entryDayOfMonth string
	entryMonth      string
	entryDayOfWeek  string
	entryCommand    string
	entryComment    string
	entryIdentifier string
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage entries in per-user system crontabs",
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the structured view of a user's crontab",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := newManager().List(cmd.Context(), cronUser)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(listOutput(doc))
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var cronEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Converge the crontab to contain exactly one entry matching the flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newManager().EnsurePresent(cmd.Context(), cronUser, entryFromFlags())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

var cronRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the matching entry, and its comment line, from the crontab",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newManager().EnsureAbsent(cmd.Context(), cronUser, entryFromFlags())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	cronCmd.PersistentFlags().StringVarP(&cronUser, "user", "u", "root", "crontab owner")

	for _, c := range []*cobra.Command{cronEnsureCmd, cronRemoveCmd} {
		f := c.Flags()
		f.StringVar(&entryMinute, "minute", "*", "minute field")
		f.StringVar(&entryHour, "hour", "*", "hour field")
		f.StringVar(&entryDayOfMonth, "daymonth", "*", "day of month field")
		f.StringVar(&entryMonth, "month", "*", "month field")
		f.StringVar(&entryDayOfWeek, "dayweek", "*", "day of week field")
		f.StringVar(&entryCommand, "command", "", "shell command to schedule")
		f.StringVar(&entryComment, "comment", "", "comment line above the entry")
		f.StringVar(&entryIdentifier, "identifier", "", "identifier tracking this job across command changes")
		_ = c.MarkFlagRequired("command")
	}

	cronCmd.AddCommand(cronListCmd, cronEnsureCmd, cronRemoveCmd)
	rootCmd.AddCommand(cronCmd)
}

func newManager() *cron.Manager {
	return cron.NewManager(cron.NewSystemTab(logger), logger, metrics)
}

func entryFromFlags() crontab.Entry {
	return crontab.Entry{
		Minute:     entryMinute,
		Hour:       entryHour,
		DayOfMonth: entryDayOfMonth,
		Month:      entryMonth,
		DayOfWeek:  entryDayOfWeek,
		Command:    entryCommand,
		Comment:    entryComment,
		Identifier: entryIdentifier,
	}
}

type cronLine struct {
	Minute     string `yaml:"minute"`
	Hour       string `yaml:"hour"`
	DayOfMonth string `yaml:"daymonth"`
	Month      string `yaml:"month"`
	DayOfWeek  string `yaml:"dayweek"`
	Command    string `yaml:"command"`
	Comment    string `yaml:"comment,omitempty"`
	Identifier string `yaml:"identifier,omitempty"`
}

type specialLine struct {
	Shorthand  string `yaml:"shorthand"`
	Command    string `yaml:"command"`
	Comment    string `yaml:"comment,omitempty"`
	Identifier string `yaml:"identifier,omitempty"`
}

type tabView struct {
	Pre      []string      `yaml:"pre"`
	Env      []string      `yaml:"env"`
	Specials []specialLine `yaml:"specials"`
	Crons    []cronLine    `yaml:"crons"`
}

func listOutput(doc *crontab.Document) tabView {
	view := tabView{
		Pre:      doc.Pre,
		Env:      doc.Env,
		Specials: make([]specialLine, 0, len(doc.Specials)),
		Crons:    make([]cronLine, 0, len(doc.Crons)),
	}

	for _, s := range doc.Specials {
		view.Specials = append(view.Specials, specialLine{
			Shorthand:  s.Shorthand,
			Command:    s.Command,
			Comment:    s.Comment,
			Identifier: s.Identifier,
		})
	}

	for _, c := range doc.Crons {
		view.Crons = append(view.Crons, cronLine{
			Minute:     c.Minute,
			Hour:       c.Hour,
			DayOfMonth: c.DayOfMonth,
			Month:      c.Month,
			DayOfWeek:  c.DayOfWeek,
			Command:    c.Command,
			Comment:    c.Comment,
			Identifier: c.Identifier,
		})
	}

	return view
}
