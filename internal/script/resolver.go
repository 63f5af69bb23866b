package script

import (
	"slices"
	"strings"

	"github.com/dop251/goja"
)

// Namespace is the prefix of every module a script may require.
const Namespace = "relagit"

// moduleFactory builds the exports of one virtual module.
type moduleFactory func(r *Resolver) *goja.Object

// modules is the whitelist. Anything not listed resolves to null.
var modules = map[string]moduleFactory{
	"actions": (*Resolver).actionsModule,
	"client":  (*Resolver).clientModule,
}

// Modules returns the full ids of every resolvable module, sorted.
func Modules() []string {
	out := make([]string, 0, len(modules))
	for sub := range modules {
		out = append(out, Namespace+":"+sub)
	}
	slices.Sort(out)
	return out
}

// SplitModuleID returns the submodule of an id in the namespace
// ("relagit:actions" -> "actions").
func SplitModuleID(id string) (string, bool) {
	sub, ok := strings.CutPrefix(id, Namespace+":")
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// Resolver is the require function injected into a script. It never
// consults a real module system.
type Resolver struct {
	vm      *goja.Runtime
	context func() goja.Value
	cache   map[string]*goja.Object
}

// NewResolver returns a resolver for vm. context builds the value returned
// by actions.context(); it runs on every call.
func NewResolver(vm *goja.Runtime, context func() goja.Value) *Resolver {
	return &Resolver{
		vm:      vm,
		context: context,
		cache:   make(map[string]*goja.Object),
	}
}

// Resolve returns the exports for id, or null when id is not whitelisted.
func (r *Resolver) Resolve(id string) goja.Value {
	sub, ok := SplitModuleID(id)
	if !ok {
		return goja.Null()
	}
	factory, ok := modules[sub]
	if !ok {
		return goja.Null()
	}
	if obj, ok := r.cache[sub]; ok {
		return obj
	}
	obj := factory(r)
	r.cache[sub] = obj
	return obj
}

// Require adapts Resolve to a JS-callable require(id).
func (r *Resolver) Require(call goja.FunctionCall) goja.Value {
	arg := call.Argument(0)
	if isNullish(arg) {
		return goja.Null()
	}
	return r.Resolve(arg.String())
}

func (r *Resolver) actionsModule() *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("Workflow", r.workflowConstructor)
	_ = obj.Set("context", func(goja.FunctionCall) goja.Value {
		if r.context == nil {
			return goja.Undefined()
		}
		return r.context()
	})
	return obj
}

func (r *Resolver) clientModule() *goja.Object {
	return r.vm.NewObject()
}

// workflowConstructor implements `new Workflow(options)`: it validates the
// options and stores on, name, description and steps on the instance.
func (r *Resolver) workflowConstructor(call goja.ConstructorCall) *goja.Object {
	vm := r.vm
	arg := call.Argument(0)
	if isNullish(arg) {
		panic(vm.NewTypeError("Workflow: options object is required"))
	}
	opts := arg.ToObject(vm)

	on := opts.Get("on")
	if _, err := triggersFrom(on); err != nil {
		panic(vm.NewTypeError("Workflow: " + err.Error()))
	}
	name := opts.Get("name")
	if s, ok := exportString(name); !ok || strings.TrimSpace(s) == "" {
		panic(vm.NewTypeError("Workflow: name must be a non-empty string"))
	}
	description := opts.Get("description")
	if _, ok := exportString(description); !ok && !isNullish(description) {
		panic(vm.NewTypeError("Workflow: description must be a string"))
	}
	steps := opts.Get("steps")
	if !isArray(steps) {
		panic(vm.NewTypeError("Workflow: steps must be an array"))
	}

	_ = call.This.Set("on", on)
	_ = call.This.Set("name", name)
	if isNullish(description) {
		_ = call.This.Set("description", goja.Undefined())
	} else {
		_ = call.This.Set("description", description)
	}
	_ = call.This.Set("steps", steps)
	return call.This
}
