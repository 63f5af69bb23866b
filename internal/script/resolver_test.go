package script

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModules(t *testing.T) {
	assert.Equal(t, []string{"relagit:actions", "relagit:client"}, Modules())
}

func TestSplitModuleID(t *testing.T) {
	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"relagit:actions", "actions", true},
		{"relagit:client", "client", true},
		{"relagit:other", "other", true},
		{"relagit:", "", false},
		{"relagit", "", false},
		{"relagitx:actions", "", false},
		{"fs", "", false},
		{"node:fs", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := SplitModuleID(tt.id)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RejectsEverythingElse(t *testing.T) {
	r := NewResolver(goja.New(), nil)
	for _, id := range []string{"fs", "child_process", "path", "os", "relagit:other", "relagit", "relagitx:actions", "./local", ""} {
		t.Run(id, func(t *testing.T) {
			assert.True(t, goja.IsNull(r.Resolve(id)), "Resolve(%q) should be null", id)
		})
	}
}

func TestResolve_Actions(t *testing.T) {
	vm := goja.New()
	calls := 0
	r := NewResolver(vm, func() goja.Value {
		calls++
		return vm.ToValue(map[string]any{"call": calls})
	})

	v := r.Resolve("relagit:actions")
	obj, ok := v.(*goja.Object)
	require.True(t, ok)

	_, ok = goja.AssertConstructor(obj.Get("Workflow"))
	assert.True(t, ok, "Workflow should be a constructor")

	ctxFn, ok := goja.AssertFunction(obj.Get("context"))
	require.True(t, ok)
	_, err := ctxFn(goja.Undefined())
	require.NoError(t, err)
	_, err = ctxFn(goja.Undefined())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "context() must rebuild on every call")

	assert.Same(t, obj, r.Resolve("relagit:actions"))
}

func TestResolve_ClientIsEmpty(t *testing.T) {
	r := NewResolver(goja.New(), nil)
	obj, ok := r.Resolve("relagit:client").(*goja.Object)
	require.True(t, ok)
	assert.Empty(t, obj.Keys())
}

func TestRequire_FromScript(t *testing.T) {
	vm := goja.New()
	r := NewResolver(vm, nil)
	require.NoError(t, vm.Set("require", r.Require))

	v, err := vm.RunString(`[
		require("fs") === null,
		require("child_process") === null,
		require() === null,
		typeof require("relagit:actions").Workflow,
		Object.keys(require("relagit:client")).length
	].join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "true,true,true,function,0", v.String())
}

func TestWorkflowConstructor(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "valid single trigger",
			src:  `new Workflow({ on: "commit", name: "a", steps: [] }).name`,
		},
		{
			name: "valid trigger list",
			src:  `new Workflow({ on: ["push", "commit"], name: "a", description: "d", steps: [{ run() {} }] }).on.length`,
		},
		{
			name:    "missing options",
			src:     `new Workflow()`,
			wantErr: "options object is required",
		},
		{
			name:    "missing name",
			src:     `new Workflow({ on: "commit", steps: [] })`,
			wantErr: "name must be a non-empty string",
		},
		{
			name:    "empty trigger list",
			src:     `new Workflow({ on: [], name: "a", steps: [] })`,
			wantErr: "at least one event",
		},
		{
			name:    "non-string trigger",
			src:     `new Workflow({ on: [1], name: "a", steps: [] })`,
			wantErr: "on[0] must be a string",
		},
		{
			name:    "steps not an array",
			src:     `new Workflow({ on: "push", name: "a", steps: {} })`,
			wantErr: "steps must be an array",
		},
		{
			name:    "description not a string",
			src:     `new Workflow({ on: "push", name: "a", description: 3, steps: [] })`,
			wantErr: "description must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := goja.New()
			r := NewResolver(vm, nil)
			require.NoError(t, vm.Set("Workflow", r.Resolve("relagit:actions").(*goja.Object).Get("Workflow")))

			_, err := vm.RunString(tt.src)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "TypeError")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkflowConstructor_StoresFields(t *testing.T) {
	vm := goja.New()
	r := NewResolver(vm, nil)
	require.NoError(t, vm.Set("require", r.Require))

	v, err := vm.RunString(`
		const { Workflow } = require("relagit:actions");
		const wf = new Workflow({ on: "push", name: "deploy", steps: [{ name: "x", run() {} }], extra: 1 });
		JSON.stringify([wf.on, wf.name, wf.description === undefined, wf.steps.length, wf.extra === undefined, wf instanceof Workflow]);
	`)
	require.NoError(t, err)
	assert.Equal(t, `["push","deploy",true,1,true,true]`, v.String())
}
