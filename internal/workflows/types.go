package workflows

import (
	"context"
	"fmt"
	"slices"
	"strings"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// Event is a lifecycle event tag.
type Event string

// The closed set of lifecycle events a host may emit.
const (
	EventCommit             Event = "commit"
	EventPullRequest        Event = "pull_request"
	EventPush               Event = "push"
	EventRelease            Event = "release"
	EventRepositoryDispatch Event = "repository_dispatch"
	EventSchedule           Event = "schedule"
	EventWorkflowDispatch   Event = "workflow_dispatch"
	EventRemoteFetch        Event = "remote_fetch"
)

// Events lists every known lifecycle event in declaration order.
var Events = []Event{
	EventCommit,
	EventPullRequest,
	EventPush,
	EventRelease,
	EventRepositoryDispatch,
	EventSchedule,
	EventWorkflowDispatch,
	EventRemoteFetch,
}

// Known reports whether e belongs to the lifecycle event taxonomy.
func (e Event) Known() bool {
	return slices.Contains(Events, e)
}

func (e Event) String() string { return string(e) }

// ParseEvent validates a tag supplied by a producer.
func ParseEvent(s string) (Event, error) {
	e := Event(strings.TrimSpace(s))
	if !e.Known() {
		return "", rgerrors.Invalidf("unknown event %q (want one of %s)", s, joinEvents(Events))
	}
	return e, nil
}

func joinEvents(events []Event) string {
	parts := make([]string, len(events))
	for i, e := range events {
		parts[i] = string(e)
	}
	return strings.Join(parts, ", ")
}

// Triggers is the set of events a workflow subscribes to.
type Triggers []Event

// NewTriggers builds a trigger set, dropping duplicates and keeping first
// occurrence order. An empty set is invalid.
func NewTriggers(events ...Event) (Triggers, error) {
	var t Triggers
	for _, e := range events {
		if e == "" {
			return nil, rgerrors.Invalidf("empty trigger tag")
		}
		if !slices.Contains(t, e) {
			t = append(t, e)
		}
	}
	if len(t) == 0 {
		return nil, rgerrors.Invalidf("workflow must trigger on at least one event")
	}
	return t, nil
}

// Has reports whether the set contains e. Tags are compared as opaque strings.
func (t Triggers) Has(e Event) bool {
	return slices.Contains(t, e)
}

// Unknown returns the tags outside the lifecycle event taxonomy.
func (t Triggers) Unknown() []Event {
	var out []Event
	for _, e := range t {
		if !e.Known() {
			out = append(out, e)
		}
	}
	return out
}

func (t Triggers) String() string {
	return joinEvents(t)
}

// StepFunc runs one step for an event. Its result is ignored; a non-nil
// error aborts the remaining steps of the owning workflow.
type StepFunc func(ctx context.Context, event Event, params ...any) error

// Step is one unit of work within a workflow.
type Step struct {
	// Name is an optional label.
	Name string
	// Run performs the step.
	Run StepFunc
}

// Label returns the step name or its position when unnamed.
func (s Step) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("#%d", index)
}

// Definition is a loaded, validated workflow.
type Definition struct {
	// ID identifies the definition within a registry (slug of the source file).
	ID string
	// Source is the script path the definition was loaded from.
	Source string
	// Triggers is the set of events the workflow fires on.
	Triggers Triggers
	// Name is the human-readable identifier.
	Name string
	// Description is optional.
	Description string
	// Steps run in declared order.
	Steps []Step

	// release frees the execution unit backing the steps.
	release func()
}

// Validate checks the structural invariants of a definition.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return rgerrors.Invalidf("workflow name is required")
	}
	if len(d.Triggers) == 0 {
		return rgerrors.Invalidf("workflow %q must trigger on at least one event", d.Name)
	}
	for i, step := range d.Steps {
		if step.Run == nil {
			return rgerrors.Invalidf("workflow %q step %s has no run function", d.Name, step.Label(i))
		}
	}
	return nil
}

// OnRelease registers fn to run when the definition is dropped from a registry.
func (d *Definition) OnRelease(fn func()) {
	d.release = fn
}

// Release frees the resources behind the definition. Safe to call more than once.
func (d *Definition) Release() {
	if d.release != nil {
		fn := d.release
		d.release = nil
		fn()
	}
}
