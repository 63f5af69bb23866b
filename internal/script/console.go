package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dop251/goja"
)

var (
	infoTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7"))
	warnTag  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e5c062"))
	errorTag = lipgloss.NewStyle().Foreground(lipgloss.Color("#e56269"))
)

// Console forwards a script's console output to the diagnostic logger,
// tagged with the script name.
type Console struct {
	logger *slog.Logger
	prefix string
}

// NewConsole returns a console whose lines carry a [prefix] tag.
func NewConsole(logger *slog.Logger, prefix string) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger, prefix: prefix}
}

// Log writes at info level.
func (c *Console) Log(args ...any) { c.emit(slog.LevelInfo, infoTag, args) }

// Info writes at info level.
func (c *Console) Info(args ...any) { c.emit(slog.LevelInfo, infoTag, args) }

// Debug writes at debug level.
func (c *Console) Debug(args ...any) { c.emit(slog.LevelDebug, infoTag, args) }

// Warn writes at warn level.
func (c *Console) Warn(args ...any) { c.emit(slog.LevelWarn, warnTag, args) }

// Error writes at error level.
func (c *Console) Error(args ...any) { c.emit(slog.LevelError, errorTag, args) }

func (c *Console) emit(level slog.Level, tag lipgloss.Style, args []any) {
	msg := tag.Render("["+c.prefix+"]") + " " + Format(args...)
	c.logger.Log(context.Background(), level, msg, "script", c.prefix)
}

// Format renders console arguments the way a JS console would: strings
// verbatim, errors by message, everything else as JSON.
func Format(args ...any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			parts[i] = v
		case error:
			parts[i] = v.Error()
		case nil:
			parts[i] = "null"
		default:
			data, err := json.Marshal(v)
			if err != nil {
				parts[i] = fmt.Sprint(v)
				continue
			}
			parts[i] = string(data)
		}
	}
	return strings.Join(parts, " ")
}

// object exposes the console to a runtime.
func (c *Console) object(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	channels := map[string]func(...any){
		"log":   c.Log,
		"info":  c.Info,
		"debug": c.Debug,
		"warn":  c.Warn,
		"error": c.Error,
	}
	for name, fn := range channels {
		_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
			fn(exportArgs(call.Arguments)...)
			return goja.Undefined()
		})
	}
	return obj
}

func exportArgs(args []goja.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch {
		case a == nil || goja.IsUndefined(a):
			out[i] = "undefined"
		case goja.IsNull(a):
			out[i] = nil
		default:
			if _, ok := goja.AssertFunction(a); ok {
				out[i] = "[Function]"
				continue
			}
			if obj, ok := a.(*goja.Object); ok && obj.ClassName() == "Error" {
				out[i] = a.String()
				continue
			}
			out[i] = a.Export()
		}
	}
	return out
}
