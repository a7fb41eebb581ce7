// Package cron converges per-user system crontabs. It owns the
// read-reconcile-install cycle; the text-level work lives in the crontab
// package and the system crontab itself is reached through the Tab
// collaborator, so the whole cycle can run against a fake in tests.
package cron

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/statesmith/statesmith/crontab"
	"github.com/statesmith/statesmith/prometheus_metrics"
)

// Tab reads and replaces one user's crontab. Implementations own whatever
// mechanism installs the new text; the manager never retries a failed
// install and never locks, one read-modify-write per call.
type Tab interface {
	Read(ctx context.Context, user string) (string, error)
	Install(ctx context.Context, user string, text string) error
}

// Result is the outcome of one manager operation.
type Result int

const (
	ResultPresent Result = iota
	ResultNew
	ResultUpdated
	ResultAbsent
	ResultRemoved
)

func (r Result) String() string {
	switch r {
	case ResultPresent:
		return "present"
	case ResultNew:
		return "new"
	case ResultUpdated:
		return "updated"
	case ResultAbsent:
		return "absent"
	case ResultRemoved:
		return "removed"
	}
	return "unknown"
}

// Changed reports whether the operation rewrote the crontab.
func (r Result) Changed() bool {
	return r == ResultNew || r == ResultUpdated || r == ResultRemoved
}

type Manager struct {
	tab     Tab
	logger  *logrus.Entry
	metrics *prometheus_metrics.PrometheusMetrics
}

func NewManager(tab Tab, logger *logrus.Entry, metrics *prometheus_metrics.PrometheusMetrics) *Manager {
	return &Manager{
		tab:     tab,
		logger:  logger,
		metrics: metrics,
	}
}

// List returns the structured view of the user's current crontab.
func (m *Manager) List(ctx context.Context, user string) (*crontab.Document, error) {
	raw, err := m.tab.Read(ctx, user)
	if err != nil {
		return nil, err
	}
	return crontab.ParseString(raw)
}

// EnsurePresent converges the user's crontab to contain exactly one entry
// matching target. The target schedule is validated before anything is
// written; existing lines are only ever compared as strings.
func (m *Manager) EnsurePresent(ctx context.Context, user string, target crontab.Entry) (Result, error) {
	target.ApplyDefaults()

	if err := crontab.ValidateSchedule(&target); err != nil {
		return ResultPresent, err
	}

	outcome, err := m.converge(ctx, user, &target, crontab.EnsurePresent)
	if err != nil {
		return ResultPresent, err
	}

	switch outcome {
	case crontab.Created:
		return ResultNew, nil
	case crontab.Updated:
		return ResultUpdated, nil
	}
	return ResultPresent, nil
}

// EnsureAbsent removes the entry matching target, if any, together with its
// comment/identifier line.
func (m *Manager) EnsureAbsent(ctx context.Context, user string, target crontab.Entry) (Result, error) {
	target.ApplyDefaults()

	outcome, err := m.converge(ctx, user, &target, crontab.EnsureAbsent)
	if err != nil {
		return ResultAbsent, err
	}

	if outcome == crontab.Removed {
		return ResultRemoved, nil
	}
	return ResultAbsent, nil
}

func (m *Manager) converge(ctx context.Context, user string, target *crontab.Entry, action crontab.Action) (crontab.Outcome, error) {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		m.metrics.ReconcileTimeHistogram.WithLabelValues(user).Observe(v)
	}))
	defer timer.ObserveDuration()

	opLogger := m.logger.WithFields(logrus.Fields{
		"user":       user,
		"command":    target.Command,
		"identifier": target.Identifier,
	})

	raw, err := m.tab.Read(ctx, user)
	if err != nil {
		m.metrics.ReconcileFailCounter.WithLabelValues(user).Inc()
		return crontab.Unchanged, err
	}

	text, outcome, err := crontab.Reconcile(raw, target, action)
	if err != nil {
		m.metrics.ReconcileFailCounter.WithLabelValues(user).Inc()
		return crontab.Unchanged, err
	}

	if outcome == crontab.Unchanged {
		opLogger.Debug("crontab already converged")
		m.metrics.ReconcilesCounter.WithLabelValues(user, outcome.String()).Inc()
		return outcome, nil
	}

	if err := m.tab.Install(ctx, user, text); err != nil {
		m.metrics.ReconcileFailCounter.WithLabelValues(user).Inc()
		return crontab.Unchanged, err
	}

	opLogger.Infof("crontab entry %s", outcome)
	m.metrics.ReconcilesCounter.WithLabelValues(user, outcome.String()).Inc()
	return outcome, nil
}
