// Package watch turns filesystem changes into engine reloads and Git
// lifecycle events.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chazuruo/relagit/internal/dispatch"
	"github.com/chazuruo/relagit/internal/script"
	"github.com/chazuruo/relagit/internal/workflows"
	"github.com/chazuruo/relagit/internal/workflows/store"
)

// Target is what the watcher drives.
type Target interface {
	Reload(ctx context.Context) (*script.LoadReport, error)
	Emit(ctx context.Context, event workflows.Event, params ...any) (*dispatch.Report, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a path must stay quiet before it is acted on.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithGitDir also watches a repository's .git directory for commits and
// fetches.
func WithGitDir(dir string) Option {
	return func(w *Watcher) {
		w.gitDir = dir
	}
}

// action is what a settled change triggers.
type action struct {
	reload bool
	event  workflows.Event
}

// Watcher monitors the workflow directory and, optionally, a .git directory.
type Watcher struct {
	target   Target
	dir      string
	gitDir   string
	debounce time.Duration
	logger   *slog.Logger

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	pending map[action]time.Time // action -> last change time
}

// New creates a watcher for the workflow directory dir.
func New(target Target, dir string, opts ...Option) *Watcher {
	w := &Watcher{
		target:   target,
		dir:      filepath.Clean(dir),
		debounce: 300 * time.Millisecond,
		logger:   slog.Default(),
		done:     make(chan struct{}),
		pending:  make(map[action]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.gitDir != "" {
		w.gitDir = filepath.Clean(w.gitDir)
	}
	return w
}

// Start begins watching. ctx scopes the reloads and dispatches the watcher
// performs.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dirs := []string{w.dir}
	if w.gitDir != "" {
		dirs = append(dirs, w.gitDir)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return err
		}
	}
	// logs/ only exists once the repository has a commit.
	if w.gitDir != "" {
		logs := filepath.Join(w.gitDir, "logs")
		if err := fsw.Add(logs); err != nil {
			w.logger.Warn("not watching commits", "dir", logs, "error", err)
		}
	}
	w.fsWatcher = fsw

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			act, ok := w.classify(event)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.pending[act] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// classify maps a filesystem event to the action it should trigger.
func (w *Watcher) classify(event fsnotify.Event) (action, bool) {
	dir, base := filepath.Split(event.Name)
	dir = filepath.Clean(dir)

	if dir == w.dir {
		if !store.IsCandidate(base) {
			return action{}, false
		}
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
			return action{}, false
		}
		return action{reload: true}, true
	}

	if w.gitDir == "" || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return action{}, false
	}
	switch {
	case dir == filepath.Join(w.gitDir, "logs") && base == "HEAD":
		return action{event: workflows.EventCommit}, true
	case dir == w.gitDir && base == "FETCH_HEAD":
		return action{event: workflows.EventRemoteFetch}, true
	}
	return action{}, false
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []action
	for act, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, act)
		}
	}
	for _, act := range ready {
		delete(w.pending, act)
	}
	w.mu.Unlock()

	// Reload before emitting so events see the latest scripts.
	for _, act := range ready {
		if act.reload {
			w.handleReload(ctx)
		}
	}
	for _, act := range ready {
		if !act.reload {
			w.handleEvent(ctx, act.event)
		}
	}
}

func (w *Watcher) handleReload(ctx context.Context) {
	report, err := w.target.Reload(ctx)
	if err != nil {
		w.logger.Error("failed to reload workflows", "dir", w.dir, "error", err)
		return
	}
	for _, f := range report.Failures {
		w.logger.Warn("workflow skipped", "file", f.File, "error", f.Err)
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event workflows.Event) {
	w.logger.Debug("repository change", "event", string(event), "git_dir", w.gitDir)
	if _, err := w.target.Emit(ctx, event); err != nil {
		w.logger.Error("failed to emit event", "event", string(event), "error", err)
	}
}
