package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Runner is implemented by *Orchestrator.
type Runner interface {
	RunOnce(ctx context.Context) (Outcome, error)
}

// Watcher runs one sync cycle for every write or create event in a
// directory. Only one cycle runs at a time; events that arrive while a cycle
// is running are dropped. Run does not return before the running cycle has
// finished.
type Watcher struct {
	dir    string
	runner Runner
	logger *zap.Logger

	// ignore holds base names whose events never trigger a cycle, such as
	// the checkpoint file itself.
	ignore  map[string]bool
	running sync.Mutex
	cycles  sync.WaitGroup
}

func NewWatcher(dir string, runner Runner, logger *zap.Logger, ignore ...string) *Watcher {
	w := &Watcher{
		dir:    dir,
		runner: runner,
		logger: logger,
		ignore: make(map[string]bool, len(ignore)),
	}
	for _, name := range ignore {
		w.ignore[filepath.Base(name)] = true
	}
	return w
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.cycles.Wait()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching for changes", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped", zap.String("dir", w.dir))
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if w.ignore[filepath.Base(event.Name)] {
		return
	}
	w.logger.Info("File changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
	w.trigger(ctx)
}

// trigger starts a cycle in the background unless one is already running.
// It reports whether a cycle was started.
func (w *Watcher) trigger(ctx context.Context) bool {
	if !w.running.TryLock() {
		w.logger.Warn("Sync already running, event dropped")
		return false
	}

	w.cycles.Add(1)
	go func() {
		defer w.cycles.Done()
		defer w.running.Unlock()
		outcome, err := w.runner.RunOnce(ctx)
		if err != nil {
			w.logger.Error("Sync cycle failed", zap.Error(err))
			return
		}
		w.logger.Info("Sync cycle finished", zap.Stringer("outcome", outcome))
	}()
	return true
}
