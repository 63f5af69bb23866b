package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
	"github.com/chazuruo/relagit/internal/workflows"
)

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

func isArray(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	return ok && obj.ClassName() == "Array"
}

func exportString(v goja.Value) (string, bool) {
	if isNullish(v) {
		return "", false
	}
	s, ok := v.Export().(string)
	return s, ok
}

// arrayItems returns the elements of a JS array in index order.
func arrayItems(v goja.Value) []goja.Value {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	n := obj.Get("length").ToInteger()
	items := make([]goja.Value, 0, n)
	for i := int64(0); i < n; i++ {
		items = append(items, obj.Get(strconv.FormatInt(i, 10)))
	}
	return items
}

// triggersFrom reads `on`: one event tag or a non-empty array of tags.
func triggersFrom(v goja.Value) (workflows.Triggers, error) {
	if s, ok := exportString(v); ok {
		return workflows.NewTriggers(workflows.Event(s))
	}
	if !isArray(v) {
		return nil, rgerrors.Invalidf("on must be an event name or an array of event names")
	}
	var events []workflows.Event
	for i, item := range arrayItems(v) {
		s, ok := exportString(item)
		if !ok {
			return nil, rgerrors.Invalidf("on[%d] must be a string", i)
		}
		events = append(events, workflows.Event(s))
	}
	return workflows.NewTriggers(events...)
}

// definition converts a script's export into a workflow definition. Steps
// keep a reference to their JS object so run is invoked as step.run(...).
func (u *Unit) definition(v goja.Value) (*workflows.Definition, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, rgerrors.Invalidf("script does not export a workflow")
	}

	name, ok := exportString(obj.Get("name"))
	if !ok || strings.TrimSpace(name) == "" {
		return nil, rgerrors.Invalidf("workflow name must be a non-empty string")
	}

	triggers, err := triggersFrom(obj.Get("on"))
	if err != nil {
		return nil, fmt.Errorf("workflow %q: %w", name, err)
	}

	var description string
	if d := obj.Get("description"); !isNullish(d) {
		if description, ok = exportString(d); !ok {
			return nil, rgerrors.Invalidf("workflow %q: description must be a string", name)
		}
	}

	stepsVal := obj.Get("steps")
	if !isArray(stepsVal) {
		return nil, rgerrors.Invalidf("workflow %q: steps must be an array", name)
	}

	var steps []workflows.Step
	for i, item := range arrayItems(stepsVal) {
		stepObj, ok := item.(*goja.Object)
		if !ok {
			return nil, rgerrors.Invalidf("workflow %q: step #%d must be an object", name, i)
		}
		run, ok := goja.AssertFunction(stepObj.Get("run"))
		if !ok {
			return nil, rgerrors.Invalidf("workflow %q: step #%d has no run function", name, i)
		}
		var stepName string
		if n := stepObj.Get("name"); !isNullish(n) {
			if stepName, ok = exportString(n); !ok {
				return nil, rgerrors.Invalidf("workflow %q: step #%d name must be a string", name, i)
			}
		}
		steps = append(steps, workflows.Step{Name: stepName, Run: u.stepFunc(stepObj, run)})
	}

	def := &workflows.Definition{
		Triggers:    triggers,
		Name:        name,
		Description: description,
		Steps:       steps,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// selectExport picks the workflow a script produced: module.exports (its
// default when present), then exports.default, then exports.
func selectExport(module, exports *goja.Object) goja.Value {
	if m, ok := module.Get("exports").(*goja.Object); ok {
		if d := m.Get("default"); !isNullish(d) {
			return d
		}
		return m
	}
	if d := exports.Get("default"); !isNullish(d) {
		return d
	}
	return exports
}

// toJS converts a Go value for a script. Scalars map directly; anything
// else goes through JSON so scripts see plain objects and arrays.
func (u *Unit) toJS(vm *goja.Runtime, v any) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return x
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return vm.ToValue(x)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return vm.ToValue(v)
	}
	out, err := u.jsonParse(goja.Undefined(), vm.ToValue(string(data)))
	if err != nil {
		return vm.ToValue(v)
	}
	return out
}

// goErrorOf returns the Go error carried by a GoError object, if any.
func goErrorOf(v goja.Value) (error, bool) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	inner := obj.Get("value")
	if isNullish(inner) {
		return nil, false
	}
	err, ok := inner.Export().(error)
	return err, ok
}

// reasonError turns a thrown value or rejection reason into an error.
func reasonError(v goja.Value) error {
	if isNullish(v) {
		return errors.New("rejected without a reason")
	}
	if err, ok := goErrorOf(v); ok {
		return err
	}
	return errors.New(v.String())
}

// jsError normalises errors returned by goja calls.
func jsError(err error) error {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return reasonError(exc.Value())
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("interrupted: %v", interrupted.Value())
	}
	return err
}
