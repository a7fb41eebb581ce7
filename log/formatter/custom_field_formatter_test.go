package formatter

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestCustomFieldFormatter(t *testing.T) {
	f := &CustomFieldFormatter{LogFormat: "%level %user %message"}

	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "crontab entry created",
		Data:    logrus.Fields{"user": "deploy"},
	}

	out, err := f.Format(entry)
	assert.NoError(t, err)
	assert.Equal(t, "info deploy crontab entry created\n", string(out))
}

func TestCustomFieldFormatterDropsUnknownFields(t *testing.T) {
	f := &CustomFieldFormatter{LogFormat: "%level %missing %message"}

	entry := &logrus.Entry{
		Level:   logrus.WarnLevel,
		Message: "hi",
		Data:    logrus.Fields{},
	}

	out, err := f.Format(entry)
	assert.NoError(t, err)
	assert.Equal(t, "warn  hi\n", string(out))
}
