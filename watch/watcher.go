package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/statesmith/statesmith/cron"
	"github.com/statesmith/statesmith/crontab"
)

// Converger is the slice of the cron manager the watcher needs.
type Converger interface {
	EnsurePresent(ctx context.Context, user string, target crontab.Entry) (cron.Result, error)
	EnsureAbsent(ctx context.Context, user string, target crontab.Entry) (cron.Result, error)
}

type Watcher struct {
	path     string
	interval time.Duration
	manager  Converger
	logger   *logrus.Entry
}

// New builds a watcher over the desired-state file at path. A non-zero
// interval adds periodic re-convergence on top of file-change events, which
// also repairs drift introduced behind our back with crontab -e.
func New(path string, interval time.Duration, manager Converger, logger *logrus.Entry) *Watcher {
	return &Watcher{
		path:     path,
		interval: interval,
		manager:  manager,
		logger:   logger,
	}
}

// Run converges once, then blocks re-converging on every change to the
// desired-state file (and on the interval tick) until ctx is done. A failed
// convergence pass is logged and retried on the next trigger, never
// automatically.
func (w *Watcher) Run(ctx context.Context) error {
	w.converge(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors and config management
	// replace files by rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debugf("desired-state file changed: %s", event)
			w.converge(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnf("watch error: %v", err)

		case <-tick:
			w.converge(ctx)
		}
	}
}

// ConvergeOnce runs a single pass, for one-shot CLI use.
func (w *Watcher) ConvergeOnce(ctx context.Context) error {
	return w.converge(ctx)
}

func (w *Watcher) converge(ctx context.Context) error {
	policy, err := LoadPolicy(w.path)
	if err != nil {
		w.logger.Errorf("cannot load desired state: %v", err)
		return err
	}

	for _, user := range policy.Users {
		userLogger := w.logger.WithField("user", user.Name)

		for _, spec := range user.Present {
			result, err := w.manager.EnsurePresent(ctx, user.Name, spec.Entry())
			logConvergeResult(userLogger, spec, result, err)
		}

		for _, spec := range user.Absent {
			result, err := w.manager.EnsureAbsent(ctx, user.Name, spec.Entry())
			logConvergeResult(userLogger, spec, result, err)
		}
	}

	return nil
}

func logConvergeResult(logger *logrus.Entry, spec EntrySpec, result cron.Result, err error) {
	entryLogger := logger.WithFields(logrus.Fields{
		"command":    spec.Command,
		"identifier": spec.Identifier,
	})

	if err != nil {
		entryLogger.Errorf("converge failed: %v", err)
		return
	}

	if result.Changed() {
		entryLogger.Infof("converged: %s", result)
	} else {
		entryLogger.Debugf("already converged: %s", result)
	}
}
