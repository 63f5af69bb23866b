package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
	"github.com/chazuruo/relagit/internal/hostctx"
	"github.com/chazuruo/relagit/internal/workflows"
)

// ErrUnitClosed is returned for work submitted to a closed unit.
var ErrUnitClosed = errors.New("script unit closed")

const (
	wrapperPrefix = "(function (require, exports, module, console) {\n"
	wrapperSuffix = "\n})"

	deferredSource = `(function () {
	var d = {};
	d.promise = new Promise(function (resolve, reject) {
		d.resolve = resolve;
		d.reject = reject;
	});
	return d;
})`
)

// ContextBuilder produces the value scripts get from actions.context().
type ContextBuilder interface {
	Build(ctx context.Context) hostctx.Context
}

// Env carries the host collaborators a unit exposes to its script.
type Env struct {
	Contexts ContextBuilder
	Logger   *slog.Logger
}

// Unit is the isolated execution environment of one script: a goja
// runtime owned by its own event loop goroutine. Every interaction with
// the runtime is scheduled on that loop.
type Unit struct {
	name     string
	loop     *eventloop.EventLoop
	contexts ContextBuilder
	logger   *slog.Logger
	console  *Console

	// ctx scopes host work started by the script; cancelled on Close.
	ctx    context.Context
	cancel context.CancelFunc

	// Set on the loop during init.
	vm        *goja.Runtime
	deferred  goja.Callable
	jsonParse goja.Callable
	freeze    goja.Callable

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewUnit starts a runtime for the script called name.
func NewUnit(name string, env Env) (*Unit, error) {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	u := &Unit{
		name:     name,
		loop:     eventloop.NewEventLoop(eventloop.EnableConsole(false)),
		contexts: env.Contexts,
		logger:   logger.With("script", name),
		console:  NewConsole(logger, name),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	u.loop.Start()

	err := u.submit(context.Background(), func(vm *goja.Runtime, settle func(error)) {
		settle(u.init(vm))
	})
	if err != nil {
		u.Close()
		return nil, fmt.Errorf("start runtime for %s: %w", name, err)
	}
	return u, nil
}

// Name returns the script name.
func (u *Unit) Name() string {
	return u.name
}

func (u *Unit) init(vm *goja.Runtime) error {
	u.vm = vm

	// The loop installs a node-style require; scripts only get the one
	// passed to their wrapper.
	vm.GlobalObject().Delete("require")

	d, err := vm.RunString(deferredSource)
	if err != nil {
		return err
	}
	var ok bool
	if u.deferred, ok = goja.AssertFunction(d); !ok {
		return errors.New("deferred helper is not callable")
	}
	if u.jsonParse, ok = goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("parse")); !ok {
		return errors.New("JSON.parse is not callable")
	}
	if u.freeze, ok = goja.AssertFunction(vm.Get("Object").ToObject(vm).Get("freeze")); !ok {
		return errors.New("Object.freeze is not callable")
	}
	return nil
}

// submit runs fn on the loop and blocks until fn calls settle, ctx ends or
// the unit closes. settle may be called from any later loop job.
func (u *Unit) submit(ctx context.Context, fn func(vm *goja.Runtime, settle func(error))) error {
	if u.isClosed() {
		return ErrUnitClosed
	}

	result := make(chan error, 1)
	var once sync.Once
	settle := func(err error) {
		once.Do(func() { result <- err })
	}

	u.loop.RunOnLoop(func(vm *goja.Runtime) {
		fn(vm, settle)
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-u.done:
		return ErrUnitClosed
	}
}

// Evaluate runs compiled module code and converts its export into a
// workflow definition. Cancelling ctx interrupts a script stuck in
// top-level code.
func (u *Unit) Evaluate(ctx context.Context, c *Compiled) (*workflows.Definition, error) {
	prog, err := goja.Compile(c.Filename, wrapperPrefix+c.Code+wrapperSuffix, false)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		u.vm.Interrupt(ctx.Err())
	})

	var def *workflows.Definition
	err = u.submit(ctx, func(vm *goja.Runtime, settle func(error)) {
		exported, err := u.run(vm, prog)
		if err != nil {
			settle(err)
			return
		}
		def, err = u.definition(exported)
		settle(err)
	})
	if !stop() && err == nil {
		// The interrupt may have landed after evaluation finished; the
		// runtime cannot be trusted for later calls.
		err = ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

func (u *Unit) run(vm *goja.Runtime, prog *goja.Program) (goja.Value, error) {
	wrapper, err := vm.RunProgram(prog)
	if err != nil {
		return nil, jsError(err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, errors.New("compiled script is not a function")
	}

	exports := vm.NewObject()
	module := vm.NewObject()
	_ = module.Set("exports", exports)

	resolver := NewResolver(vm, func() goja.Value { return u.contextValue(vm) })

	_, err = fn(goja.Undefined(),
		vm.ToValue(resolver.Require),
		exports,
		module,
		u.console.object(vm),
	)
	if err != nil {
		return nil, jsError(err)
	}
	return selectExport(module, exports), nil
}

// stepFunc binds a script step to a Go StepFunc. The step's run is called
// with the step as this; a returned thenable is awaited.
func (u *Unit) stepFunc(self *goja.Object, run goja.Callable) workflows.StepFunc {
	return func(ctx context.Context, event workflows.Event, params ...any) error {
		return u.submit(ctx, func(vm *goja.Runtime, settle func(error)) {
			args := make([]goja.Value, 0, len(params)+1)
			args = append(args, vm.ToValue(string(event)))
			for _, p := range params {
				args = append(args, u.toJS(vm, p))
			}

			res, err := run(self, args...)
			if err != nil {
				settle(jsError(err))
				return
			}
			u.await(vm, res, settle)
		})
	}
}

// await settles once v resolves. Non-thenables settle immediately.
func (u *Unit) await(vm *goja.Runtime, v goja.Value, settle func(error)) {
	obj, ok := v.(*goja.Object)
	if !ok {
		settle(nil)
		return
	}
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		settle(nil)
		return
	}

	onFulfilled := vm.ToValue(func(goja.FunctionCall) goja.Value {
		settle(nil)
		return goja.Undefined()
	})
	onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		settle(reasonError(call.Argument(0)))
		return goja.Undefined()
	})
	if _, err := then(obj, onFulfilled, onRejected); err != nil {
		settle(jsError(err))
	}
}

// contextValue builds the object returned by actions.context(). It is
// rebuilt on every call so it always reflects the current selection.
func (u *Unit) contextValue(vm *goja.Runtime) goja.Value {
	var c hostctx.Context
	if u.contexts != nil {
		c = u.contexts.Build(u.ctx)
	}
	if c.Repository == nil {
		c.Repository = map[string]any{"path": nil}
	}

	git := vm.NewObject()
	_ = git.Set("push", func(goja.FunctionCall) goja.Value {
		return u.async(vm, "push", func(ctx context.Context) error {
			if c.Git.Push == nil {
				return rgerrors.ErrNoRepository
			}
			return c.Git.Push(ctx)
		})
	})
	_ = git.Set("commit", func(call goja.FunctionCall) goja.Value {
		message, _ := exportString(call.Argument(0))
		description, _ := exportString(call.Argument(1))
		return u.async(vm, "commit", func(ctx context.Context) error {
			if c.Git.Commit == nil {
				return rgerrors.ErrNoRepository
			}
			return c.Git.Commit(ctx, message, description)
		})
	})

	repo := u.toJS(vm, c.Repository)
	if _, err := u.freeze(goja.Undefined(), repo); err != nil {
		panic(vm.NewGoError(err))
	}

	out := vm.NewObject()
	_ = out.Set("Git", git)
	_ = out.Set("Repository", repo)
	return out
}

// async runs fn off the loop and returns a promise settled with its result.
func (u *Unit) async(vm *goja.Runtime, op string, fn func(context.Context) error) goja.Value {
	d, err := u.deferred(goja.Undefined())
	if err != nil {
		panic(vm.NewGoError(err))
	}
	dobj := d.ToObject(vm)
	resolve, _ := goja.AssertFunction(dobj.Get("resolve"))
	reject, _ := goja.AssertFunction(dobj.Get("reject"))

	go func() {
		err := fn(u.ctx)
		if err != nil {
			u.logger.Debug("script host call failed", "op", op, "error", err)
		}
		u.loop.RunOnLoop(func(vm *goja.Runtime) {
			if err != nil {
				_, _ = reject(goja.Undefined(), vm.NewGoError(err))
				return
			}
			_, _ = resolve(goja.Undefined(), goja.Undefined())
		})
	}()

	return dobj.Get("promise")
}

func (u *Unit) isClosed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.closed
}

// Close stops the loop. Pending step waits return ErrUnitClosed. Safe to
// call more than once.
func (u *Unit) Close() {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return
	}
	u.closed = true
	close(u.done)
	u.mu.Unlock()

	u.cancel()
	if u.vm != nil {
		u.vm.Interrupt(ErrUnitClosed)
	}
	u.loop.Stop()
}
