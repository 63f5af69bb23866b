package script

import (
	"context"
	"log/slog"
	"os"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
	"github.com/chazuruo/relagit/internal/workflows"
	"github.com/chazuruo/relagit/internal/workflows/store"
)

// Loader populates a registry from the workflow directory.
type Loader struct {
	store    *store.Store
	registry *workflows.Registry
	contexts ContextBuilder
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics and script consoles.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithContextBuilder sets the source of actions.context() values.
func WithContextBuilder(b ContextBuilder) Option {
	return func(l *Loader) {
		l.contexts = b
	}
}

// NewLoader creates a Loader that reads from st and adds to reg.
func NewLoader(st *store.Store, reg *workflows.Registry, opts ...Option) *Loader {
	l := &Loader{
		store:    st,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Failure records one script that did not load.
type Failure struct {
	File string
	Err  error
}

// LoadReport summarises a load pass.
type LoadReport struct {
	// Loaded holds the IDs added to the registry, in load order.
	Loaded []string
	// Failures holds the scripts that were skipped.
	Failures []Failure
}

// OK reports whether every candidate loaded.
func (r *LoadReport) OK() bool {
	return len(r.Failures) == 0
}

// LoadAll loads every candidate script and adds the results to the
// registry. A failing script is logged and skipped; only a missing
// workflow directory that cannot be created aborts the pass. LoadAll
// appends: callers wanting a clean reload reset the registry first.
func (l *Loader) LoadAll(ctx context.Context) (*LoadReport, error) {
	if _, err := l.store.EnsureWorkflowDirectory(); err != nil {
		return nil, err
	}
	if written, err := l.store.EnsureTypeStub(); err != nil {
		l.logger.Warn("failed to write declaration stub", "dir", l.store.Dir(), "error", err)
	} else if written {
		l.logger.Debug("wrote declaration stub", "path", l.store.Path(store.StubName))
	}

	names, err := l.store.ListCandidateScripts()
	if err != nil {
		return nil, rgerrors.Wrap(err, "list workflow scripts")
	}

	report := &LoadReport{}
	var ids []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		def, err := l.LoadFile(ctx, name)
		if err != nil {
			l.fail(report, name, err)
			continue
		}

		def.ID = store.GenerateUniqueSlug(def.ID, ids)
		if err := l.registry.Add(def); err != nil {
			def.Release()
			l.fail(report, name, err)
			continue
		}

		ids = append(ids, def.ID)
		report.Loaded = append(report.Loaded, def.ID)
		l.logger.Info("loaded workflow",
			"id", def.ID,
			"name", def.Name,
			"on", def.Triggers.String(),
			"steps", len(def.Steps),
		)
	}

	return report, nil
}

func (l *Loader) fail(report *LoadReport, name string, err error) {
	l.logger.Error("failed to load workflow", "file", name, "error", err)
	report.Failures = append(report.Failures, Failure{File: name, Err: err})
}

// LoadFile reads, transpiles and evaluates one script. The returned
// definition owns a running unit; release it when dropping the definition.
func (l *Loader) LoadFile(ctx context.Context, name string) (*workflows.Definition, error) {
	path := l.store.Path(name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &rgerrors.ScriptError{Stage: rgerrors.StageRead, File: name, Err: err}
	}

	compiled, err := Transpile(name, data)
	if err != nil {
		return nil, &rgerrors.ScriptError{Stage: rgerrors.StageTranspile, File: name, Err: err}
	}

	unit, err := NewUnit(name, Env{Contexts: l.contexts, Logger: l.logger})
	if err != nil {
		return nil, &rgerrors.ScriptError{Stage: rgerrors.StageExecute, File: name, Err: err}
	}

	def, err := unit.Evaluate(ctx, compiled)
	if err != nil {
		unit.Close()
		return nil, &rgerrors.ScriptError{Stage: rgerrors.StageExecute, File: name, Err: err}
	}

	def.ID = store.ScriptID(name)
	def.Source = path
	def.OnRelease(unit.Close)

	if unknown := def.Triggers.Unknown(); len(unknown) > 0 {
		l.logger.Warn("workflow triggers on unknown events",
			"file", name,
			"events", workflows.Triggers(unknown).String(),
		)
	}
	return def, nil
}
