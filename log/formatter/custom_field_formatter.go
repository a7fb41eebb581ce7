// Package formatter renders log entries from a user-supplied template of
// %field placeholders, e.g. "%time %level %user %message".
package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var fieldPattern = regexp.MustCompile(`%[\w.]+`)

type CustomFieldFormatter struct {
	LogFormat string
}

func (f *CustomFieldFormatter) getFieldValue(entry *logrus.Entry, field string) (string, bool) {
	switch strings.ToLower(field) {
	case "level":
		return entry.Level.String(), true
	case "time":
		return entry.Time.Format(time.RFC3339Nano), true
	case "message":
		return entry.Message, true
	default:
		val, ok := entry.Data[field]
		if ok {
			return fmt.Sprint(val), true
		}
		return "", false
	}
}

func (f *CustomFieldFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	replaced := fieldPattern.ReplaceAllStringFunc(f.LogFormat, func(match string) string {
		key := strings.TrimPrefix(match, "%")
		if value, ok := f.getFieldValue(entry, key); ok {
			return value
		}
		return ""
	})

	return []byte(strings.TrimSpace(replaced) + "\n"), nil
}
