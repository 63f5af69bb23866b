// Package dispatch runs the workflows subscribed to a lifecycle event.
package dispatch

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
	"github.com/chazuruo/relagit/internal/workflows"
)

// Dispatcher delivers events to registered workflows.
type Dispatcher interface {
	// Dispatch runs every workflow whose triggers contain event and returns
	// once all of them have finished. Step failures are reported, never
	// returned: one workflow failing does not stop the others.
	Dispatch(ctx context.Context, event workflows.Event, params ...any) Report
}

// Source yields the workflows to consider for an event.
type Source interface {
	All() iter.Seq[*workflows.Definition]
}

// Report contains the result of one dispatch.
type Report struct {
	RunID     string
	Event     workflows.Event
	Workflows []WorkflowResult
	Duration  time.Duration
}

// Matched returns the number of workflows the event fired.
func (r Report) Matched() int {
	return len(r.Workflows)
}

// Failed returns the results of workflows that did not complete.
func (r Report) Failed() []WorkflowResult {
	var out []WorkflowResult
	for _, w := range r.Workflows {
		if !w.Success {
			out = append(out, w)
		}
	}
	return out
}

// OK reports whether every matched workflow completed.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// WorkflowResult contains the result of running one workflow.
type WorkflowResult struct {
	ID          string
	Name        string
	Success     bool
	FailedStep  int // -1 when no step failed
	Canceled    bool
	StepResults []StepResult
	Err         error
	Duration    time.Duration
}

// StepsRun returns how many steps were started.
func (w WorkflowResult) StepsRun() int {
	n := 0
	for _, s := range w.StepResults {
		if !s.Skipped {
			n++
		}
	}
	return n
}

// StepResult contains the result of a single step.
type StepResult struct {
	Step     int // Step index
	Name     string
	Success  bool
	Skipped  bool
	Duration time.Duration
	Error    error
}

// dispatcher implements Dispatcher.
type dispatcher struct {
	source      Source
	parallel    bool
	stepTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a dispatcher.
type Option func(*dispatcher)

// WithParallel runs distinct matched workflows concurrently. Steps of one
// workflow always run in declared order.
func WithParallel(parallel bool) Option {
	return func(d *dispatcher) {
		d.parallel = parallel
	}
}

// WithStepTimeout bounds each step. Zero means no bound.
func WithStepTimeout(timeout time.Duration) Option {
	return func(d *dispatcher) {
		if timeout >= 0 {
			d.stepTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher over source.
func New(source Source, opts ...Option) Dispatcher {
	d := &dispatcher{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the workflows matching event.
func (d *dispatcher) Dispatch(ctx context.Context, event workflows.Event, params ...any) Report {
	start := time.Now()
	report := Report{
		RunID: uuid.NewString(),
		Event: event,
	}
	logger := d.logger.With("run", report.RunID, "event", string(event))

	var matched []*workflows.Definition
	for def := range d.source.All() {
		if def.Triggers.Has(event) {
			matched = append(matched, def)
		}
	}
	if len(matched) == 0 {
		logger.Debug("no workflows subscribed")
		report.Duration = time.Since(start)
		return report
	}
	logger.Debug("dispatching", "workflows", len(matched))

	report.Workflows = make([]WorkflowResult, len(matched))
	if d.parallel && len(matched) > 1 {
		var g errgroup.Group
		for i, def := range matched {
			g.Go(func() error {
				report.Workflows[i] = d.runWorkflow(ctx, logger, def, event, params)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, def := range matched {
			report.Workflows[i] = d.runWorkflow(ctx, logger, def, event, params)
		}
	}

	report.Duration = time.Since(start)
	return report
}

// runWorkflow runs the steps of def in order, stopping at the first failure.
func (d *dispatcher) runWorkflow(ctx context.Context, logger *slog.Logger, def *workflows.Definition, event workflows.Event, params []any) WorkflowResult {
	start := time.Now()
	result := WorkflowResult{
		ID:          def.ID,
		Name:        def.Name,
		FailedStep:  -1,
		StepResults: make([]StepResult, len(def.Steps)),
	}
	wfLogger := logger.With("workflow", def.ID)

	for i, step := range def.Steps {
		result.StepResults[i] = StepResult{Step: i, Name: step.Name}
	}

	for i, step := range def.Steps {
		if err := ctx.Err(); err != nil {
			result.Canceled = true
			result.FailedStep = i
			result.Err = err
			skipFrom(result.StepResults, i)
			break
		}

		stepResult := d.runStep(ctx, step, event, params)
		stepResult.Step = i
		result.StepResults[i] = stepResult

		if stepResult.Error != nil {
			result.FailedStep = i
			result.Err = &rgerrors.StepError{
				Workflow: def.Name,
				Step:     step.Name,
				Index:    i,
				Event:    string(event),
				Err:      stepResult.Error,
			}
			skipFrom(result.StepResults, i+1)
			wfLogger.Error("workflow step failed", "step", step.Label(i), "error", stepResult.Error)
			break
		}
	}

	result.Success = result.Err == nil
	result.Duration = time.Since(start)
	if result.Success {
		wfLogger.Debug("workflow finished", "steps", len(def.Steps), "duration", result.Duration)
	}
	return result
}

func skipFrom(results []StepResult, from int) {
	for j := from; j < len(results); j++ {
		results[j].Skipped = true
	}
}

// runStep runs one step, turning a panic into a step error.
func (d *dispatcher) runStep(ctx context.Context, step workflows.Step, event workflows.Event, params []any) (result StepResult) {
	start := time.Now()
	result.Name = step.Name

	stepCtx := ctx
	if d.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, d.stepTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic: %v", r)
		}
		result.Success = result.Error == nil
		result.Duration = time.Since(start)
	}()

	result.Error = step.Run(stepCtx, event, params...)
	return result
}
