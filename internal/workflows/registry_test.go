package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

func def(id string, events ...Event) *Definition {
	return &Definition{ID: id, Name: id, Triggers: Triggers(events), Steps: []Step{{Run: noop}}}
}

func TestRegistry_AddAndAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(def("b", EventPush)))
	require.NoError(t, r.Add(def("a", EventCommit)))
	require.NoError(t, r.Add(def("c", EventPush, EventCommit)))

	var ids []string
	for d := range r.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 3, r.Len())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_AllStopsEarly(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(def("a", EventPush)))
	require.NoError(t, r.Add(def("b", EventPush)))

	seen := 0
	for range r.All() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(def("lint", EventCommit)))

	err := r.Add(def("lint", EventPush))
	require.Error(t, err)
	assert.True(t, rgerrors.IsAlreadyExists(err))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry()

	assert.True(t, rgerrors.IsInvalid(r.Add(nil)))
	assert.True(t, rgerrors.IsInvalid(r.Add(&Definition{Name: "x", Triggers: Triggers{EventPush}})))
	assert.True(t, rgerrors.IsInvalid(r.Add(&Definition{ID: "x"})))
	assert.Zero(t, r.Len())
}

func TestRegistry_Matching(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(def("both", EventPush, EventCommit)))
	require.NoError(t, r.Add(def("push-only", EventPush)))

	ids := func(defs []*Definition) []string {
		var out []string
		for _, d := range defs {
			out = append(out, d.ID)
		}
		return out
	}

	assert.Equal(t, []string{"both", "push-only"}, ids(r.Matching(EventPush)))
	assert.Equal(t, []string{"both"}, ids(r.Matching(EventCommit)))
	assert.Empty(t, r.Matching(EventRelease))
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	released := map[string]bool{}
	for _, id := range []string{"a", "b"} {
		d := def(id, EventPush)
		d.OnRelease(func() { released[id] = true })
		require.NoError(t, r.Add(d))
	}

	r.Reset()

	assert.Zero(t, r.Len())
	assert.Equal(t, map[string]bool{"a": true, "b": true}, released)

	// IDs are free again after a reset.
	require.NoError(t, r.Add(def("a", EventPush)))
}
