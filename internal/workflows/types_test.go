package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

func noop(context.Context, Event, ...any) error { return nil }

func TestEvent_Known(t *testing.T) {
	for _, e := range Events {
		assert.True(t, e.Known(), "%s should be known", e)
	}
	assert.False(t, Event("deploy").Known())
	assert.False(t, Event("").Known())
	assert.Len(t, Events, 8)
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent(" remote_fetch ")
	require.NoError(t, err)
	assert.Equal(t, EventRemoteFetch, e)

	_, err = ParseEvent("deploy")
	require.Error(t, err)
	assert.True(t, rgerrors.IsInvalid(err))
	assert.Contains(t, err.Error(), "commit, pull_request, push")
}

func TestNewTriggers(t *testing.T) {
	tr, err := NewTriggers(EventPush, EventCommit, EventPush)
	require.NoError(t, err)
	assert.Equal(t, Triggers{EventPush, EventCommit}, tr)

	assert.True(t, tr.Has(EventPush))
	assert.True(t, tr.Has(EventCommit))
	assert.False(t, tr.Has(EventRelease))

	_, err = NewTriggers()
	assert.True(t, rgerrors.IsInvalid(err))

	_, err = NewTriggers(EventPush, "")
	assert.True(t, rgerrors.IsInvalid(err))
}

func TestTriggers_Unknown(t *testing.T) {
	tr := Triggers{EventCommit, "deploy", EventPush, "nightly"}
	assert.Equal(t, []Event{"deploy", "nightly"}, tr.Unknown())
	assert.Empty(t, Triggers{EventCommit}.Unknown())
	assert.Equal(t, "commit, deploy, push, nightly", tr.String())
}

func TestStep_Label(t *testing.T) {
	assert.Equal(t, "lint", Step{Name: "lint"}.Label(3))
	assert.Equal(t, "#3", Step{}.Label(3))
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr string
	}{
		{
			name: "valid",
			def:  Definition{Name: "lint", Triggers: Triggers{EventCommit}, Steps: []Step{{Run: noop}}},
		},
		{
			name: "zero steps is legal",
			def:  Definition{Name: "inert", Triggers: Triggers{EventCommit}},
		},
		{
			name:    "missing name",
			def:     Definition{Name: "  ", Triggers: Triggers{EventCommit}},
			wantErr: "name is required",
		},
		{
			name:    "missing triggers",
			def:     Definition{Name: "lint"},
			wantErr: "at least one event",
		},
		{
			name:    "step without run",
			def:     Definition{Name: "lint", Triggers: Triggers{EventPush}, Steps: []Step{{Run: noop}, {Name: "broken"}}},
			wantErr: `step broken has no run function`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, rgerrors.IsInvalid(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinition_Release(t *testing.T) {
	calls := 0
	def := &Definition{Name: "x"}
	def.Release()

	def.OnRelease(func() { calls++ })
	def.Release()
	def.Release()
	assert.Equal(t, 1, calls)
}
