package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statesmith/statesmith/crontab"
	"github.com/statesmith/statesmith/prometheus_metrics"
)

// Registered once: the prometheus default registry rejects duplicates.
var testMetrics = prometheus_metrics.New("127.0.0.1:0")

func newTestLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	logger.Level = logrus.DebugLevel
	return logger.WithFields(logrus.Fields{})
}

type fakeTab struct {
	text       string
	readErr    error
	installErr error
	installs   int
}

func (f *fakeTab) Read(ctx context.Context, user string) (string, error) {
	return f.text, f.readErr
}

func (f *fakeTab) Install(ctx context.Context, user string, text string) error {
	if f.installErr != nil {
		return f.installErr
	}
	f.text = text
	f.installs++
	return nil
}

func testManager(tab Tab) *Manager {
	return NewManager(tab, newTestLogger(), testMetrics)
}

func TestEnsurePresentLifecycle(t *testing.T) {
	ctx := context.Background()
	tab := &fakeTab{}
	m := testManager(tab)

	entry := crontab.Entry{
		Minute:     "0",
		Hour:       "2",
		Command:    "/usr/local/bin/backup",
		Comment:    "nightly backup",
		Identifier: "backup",
	}

	result, err := m.EnsurePresent(ctx, "deploy", entry)
	require.NoError(t, err)
	assert.Equal(t, ResultNew, result)
	assert.True(t, result.Changed())
	assert.Equal(t, crontab.Marker+"\n# nightly backup SALT_CRON_IDENTIFIER:backup\n0 2 * * * /usr/local/bin/backup\n", tab.text)

	// Second call with identical arguments is a no-op.
	installed := tab.text
	result, err = m.EnsurePresent(ctx, "deploy", entry)
	require.NoError(t, err)
	assert.Equal(t, ResultPresent, result)
	assert.False(t, result.Changed())
	assert.Equal(t, installed, tab.text)
	assert.Equal(t, 1, tab.installs)

	// A schedule change rewrites the entry in place.
	entry.Hour = "3"
	result, err = m.EnsurePresent(ctx, "deploy", entry)
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, result)
	assert.Contains(t, tab.text, "0 3 * * * /usr/local/bin/backup")
	assert.Equal(t, 2, tab.installs)
}

func TestEnsurePresentValidatesSchedule(t *testing.T) {
	tab := &fakeTab{}
	m := testManager(tab)

	entry := crontab.Entry{Minute: "61", Command: "ls"}
	_, err := m.EnsurePresent(context.Background(), "deploy", entry)
	assert.Error(t, err)
	assert.Equal(t, 0, tab.installs)
}

func TestEnsureAbsent(t *testing.T) {
	ctx := context.Background()
	tab := &fakeTab{
		text: crontab.Marker + "\n# SALT_CRON_IDENTIFIER:doomed\n* * * * * /bin/doomed\n* * * * * survivor\n",
	}
	m := testManager(tab)

	entry := crontab.Entry{Command: "/bin/doomed", Identifier: "doomed"}

	result, err := m.EnsureAbsent(ctx, "deploy", entry)
	require.NoError(t, err)
	assert.Equal(t, ResultRemoved, result)
	assert.Equal(t, crontab.Marker+"\n* * * * * survivor\n", tab.text)

	result, err = m.EnsureAbsent(ctx, "deploy", entry)
	require.NoError(t, err)
	assert.Equal(t, ResultAbsent, result)
	assert.Equal(t, 1, tab.installs)
}

func TestInstallFailureIsSurfaced(t *testing.T) {
	tab := &fakeTab{installErr: errors.New("crontab: permission denied")}
	m := testManager(tab)

	_, err := m.EnsurePresent(context.Background(), "deploy", crontab.Entry{Command: "ls"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestReadFailureIsSurfaced(t *testing.T) {
	tab := &fakeTab{readErr: errors.New("crontab: user gone")}
	m := testManager(tab)

	_, err := m.EnsureAbsent(context.Background(), "gone", crontab.Entry{Command: "ls"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user gone")
}

func TestList(t *testing.T) {
	tab := &fakeTab{
		text: "# hand written\n" + crontab.Marker + "\nMAILTO=ops@example.com\n@daily /bin/rotate\n* * * * * ls\n",
	}
	m := testManager(tab)

	doc, err := m.List(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, []string{"# hand written"}, doc.Pre)
	assert.Equal(t, []string{"MAILTO=ops@example.com"}, doc.Env)
	require.Len(t, doc.Specials, 1)
	assert.Equal(t, "@daily", doc.Specials[0].Shorthand)
	require.Len(t, doc.Crons, 1)
	assert.Equal(t, "ls", doc.Crons[0].Command)
}
