// Package engine wires the workflow runtime together: it loads scripts from
// the workflow directory into a registry and dispatches lifecycle events to
// them.
package engine

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/chazuruo/relagit/internal/config"
	"github.com/chazuruo/relagit/internal/dispatch"
	"github.com/chazuruo/relagit/internal/hostctx"
	"github.com/chazuruo/relagit/internal/script"
	"github.com/chazuruo/relagit/internal/workflows"
	"github.com/chazuruo/relagit/internal/workflows/store"
)

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine closed")

// Deps are the host collaborators the engine exposes to scripts.
type Deps struct {
	Repositories hostctx.RepositoryState
	Location     hostctx.LocationState
	Git          hostctx.Git
	Logger       *slog.Logger
}

// Engine owns one registry and everything that reads or writes it.
type Engine struct {
	cfg        *config.Config
	store      *store.Store
	registry   *workflows.Registry
	loader     *script.Loader
	dispatcher dispatch.Dispatcher
	contexts   *hostctx.Builder
	logger     *slog.Logger

	// mu orders reloads against dispatches. Reload holds it exclusively.
	mu       sync.RWMutex
	inflight sync.WaitGroup

	stateMu sync.Mutex
	closed  bool
	onDone  func(dispatch.Report)
}

// New creates an engine for cfg. Nothing is loaded until Reload.
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st := store.New(cfg.WorkflowsPath())
	reg := workflows.NewRegistry()
	contexts := hostctx.NewBuilder(deps.Repositories, deps.Location, deps.Git, hostctx.WithLogger(logger))

	return &Engine{
		cfg:      cfg,
		store:    st,
		registry: reg,
		loader: script.NewLoader(st, reg,
			script.WithLogger(logger),
			script.WithContextBuilder(contexts),
		),
		dispatcher: dispatch.New(reg,
			dispatch.WithParallel(cfg.Dispatch.Parallel),
			dispatch.WithStepTimeout(cfg.Dispatch.StepTimeoutDuration()),
			dispatch.WithLogger(logger),
		),
		contexts: contexts,
		logger:   logger,
	}, nil
}

// Store returns the workflow directory store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Contexts returns the builder behind actions.context().
func (e *Engine) Contexts() *hostctx.Builder {
	return e.contexts
}

// Workflows yields the loaded definitions in load order.
func (e *Engine) Workflows() iter.Seq[*workflows.Definition] {
	return e.registry.All()
}

// Len returns the number of loaded definitions.
func (e *Engine) Len() int {
	return e.registry.Len()
}

// OnBackgroundDone registers fn to receive the report of every dispatch that
// ran under the background policy.
func (e *Engine) OnBackgroundDone(fn func(dispatch.Report)) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.onDone = fn
}

// Reload drops every loaded definition and loads the workflow directory
// again. No dispatch runs while a reload is in progress.
func (e *Engine) Reload(ctx context.Context) (*script.LoadReport, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Reset()
	report, err := e.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("workflows loaded", "dir", e.store.Dir(), "loaded", len(report.Loaded), "failed", len(report.Failures))
	return report, nil
}

// Emit delivers event to the subscribed workflows according to the event's
// dispatch policy. Under "await" it returns the finished report. Under
// "background" it returns nil immediately and the dispatch continues after
// ctx is done; use Wait to drain it.
func (e *Engine) Emit(ctx context.Context, event workflows.Event, params ...any) (*dispatch.Report, error) {
	e.stateMu.Lock()
	if e.closed {
		e.stateMu.Unlock()
		return nil, ErrClosed
	}
	e.inflight.Add(1)
	onDone := e.onDone
	e.stateMu.Unlock()

	if e.cfg.Dispatch.PolicyFor(string(event)) == config.PolicyBackground {
		bg := context.WithoutCancel(ctx)
		go func() {
			defer e.inflight.Done()
			report := e.dispatch(bg, event, params)
			if onDone != nil {
				onDone(report)
			}
		}()
		return nil, nil
	}

	defer e.inflight.Done()
	report := e.dispatch(ctx, event, params)
	return &report, nil
}

func (e *Engine) dispatch(ctx context.Context, event workflows.Event, params []any) dispatch.Report {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := e.dispatcher.Dispatch(ctx, event, params...)
	if report.Matched() > 0 {
		e.logger.Info("event dispatched",
			"event", string(event),
			"run", report.RunID,
			"workflows", report.Matched(),
			"failed", len(report.Failed()),
			"duration", report.Duration,
		)
	}
	return report
}

// Wait blocks until every in-flight dispatch has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// Close waits for in-flight dispatches and releases every loaded script.
func (e *Engine) Close() error {
	e.stateMu.Lock()
	if e.closed {
		e.stateMu.Unlock()
		return nil
	}
	e.closed = true
	e.stateMu.Unlock()

	e.inflight.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.Reset()
	return nil
}

func (e *Engine) isClosed() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.closed
}
