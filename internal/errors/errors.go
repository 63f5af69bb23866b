// Package errors provides the structured error hierarchy for relagit.
//
// Base errors are sentinel values that callers match with errors.Is. Typed
// errors add context (which script, which stage, which step) and unwrap to
// both their sentinel and their cause.
//
// # Error Types
//
// Base errors (sentinel errors):
//   - ErrNotFound - resource not found
//   - ErrAlreadyExists - duplicate resource
//   - ErrInvalid - validation failed
//   - ErrGit - git operation failed
//   - ErrIO - file I/O error
//   - ErrNoRepository - no repository is selected
//   - ErrScriptRead, ErrTranspile, ErrScriptExecution - workflow script load stages
//   - ErrStepExecution - a workflow step failed during dispatch
//
// Wrapped error types (add context):
//   - DirectoryCreateError{Path, Err} - the workflow directory could not be created
//   - ScriptError{Stage, File, Err} - a workflow script failed to load
//   - StepError{Workflow, Step, Index, Event, Err} - a workflow step failed
//   - GitError{Op, Err, Cmd} - git command errors
//   - ConfigError{Path, Err} - configuration errors
//
// # Usage
//
//	return &errors.ScriptError{Stage: errors.StageTranspile, File: name, Err: err}
//
//	if errors.IsTranspile(err) {
//	    // the script never reached the runtime
//	}
package errors

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = baseError("not found")

	// ErrAlreadyExists indicates a duplicate resource.
	ErrAlreadyExists = baseError("already exists")

	// ErrInvalid indicates validation failed.
	ErrInvalid = baseError("invalid")

	// ErrGit indicates a git operation failed.
	ErrGit = baseError("git operation failed")

	// ErrIO indicates a file I/O error.
	ErrIO = baseError("I/O error")

	// ErrNoRepository indicates that no repository is currently selected.
	ErrNoRepository = baseError("no repository selected")

	// ErrScriptRead indicates a workflow script could not be read.
	ErrScriptRead = baseError("script read failed")

	// ErrTranspile indicates a workflow script could not be transpiled.
	ErrTranspile = baseError("transpile failed")

	// ErrScriptExecution indicates a workflow script failed while evaluating
	// or did not export a well-formed workflow.
	ErrScriptExecution = baseError("script execution failed")

	// ErrStepExecution indicates a workflow step threw or rejected.
	ErrStepExecution = baseError("step execution failed")
)

// baseError is a string that implements error.
type baseError string

func (e baseError) Error() string { return string(e) }

// Stage identifies the load stage a ScriptError happened in.
type Stage string

// Script load stages.
const (
	StageRead      Stage = "read"
	StageTranspile Stage = "transpile"
	StageExecute   Stage = "execute"
)

// sentinel returns the base error matching the stage.
func (s Stage) sentinel() error {
	switch s {
	case StageRead:
		return ErrScriptRead
	case StageTranspile:
		return ErrTranspile
	default:
		return ErrScriptExecution
	}
}

// DirectoryCreateError is returned when the workflow directory is missing
// and cannot be created. It aborts the whole load pass.
type DirectoryCreateError struct {
	// Path is the directory that could not be created.
	Path string
	// Err is the underlying filesystem error.
	Err error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("create workflow directory %s: %s", e.Path, e.Err)
}

func (e *DirectoryCreateError) Unwrap() error { return e.Err }

// ScriptError represents a failure to load one workflow script.
type ScriptError struct {
	// Stage is the load stage that failed.
	Stage Stage
	// File is the script file name.
	File string
	// Err is the underlying error.
	Err error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("workflow script %s: %s: %s", e.File, e.Stage.sentinel(), e.Err)
}

// Unwrap exposes both the stage sentinel and the cause.
func (e *ScriptError) Unwrap() []error { return []error{e.Stage.sentinel(), e.Err} }

// StepError represents a step that threw or rejected during dispatch.
type StepError struct {
	// Workflow is the workflow name.
	Workflow string
	// Step is the step label (optional).
	Step string
	// Index is the zero-based step position.
	Index int
	// Event is the lifecycle event being dispatched.
	Event string
	// Err is the underlying error.
	Err error
}

func (e *StepError) Error() string {
	label := fmt.Sprintf("#%d", e.Index)
	if e.Step != "" {
		label = fmt.Sprintf("#%d %q", e.Index, e.Step)
	}
	return fmt.Sprintf("workflow %q step %s on %s: %s", e.Workflow, label, e.Event, e.Err)
}

// Unwrap exposes both ErrStepExecution and the cause.
func (e *StepError) Unwrap() []error { return []error{ErrStepExecution, e.Err} }

// GitError represents an error that occurred during a git operation.
type GitError struct {
	// Op is the git operation being performed (e.g., "commit", "push").
	Op string
	// Err is the underlying error.
	Err error
	// Cmd is the full git command that was executed (optional).
	Cmd string
}

func (e *GitError) Error() string {
	if e.Cmd != "" {
		return fmt.Sprintf("git %s: %s\n  cmd: %s", e.Op, e.Err, e.Cmd)
	}
	return fmt.Sprintf("git %s: %s", e.Op, e.Err)
}

// Unwrap exposes both ErrGit and the cause.
func (e *GitError) Unwrap() []error { return []error{ErrGit, e.Err} }

// ConfigError represents an error related to configuration.
type ConfigError struct {
	// Path is the configuration file path (optional).
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap adds context to an error by wrapping it with an operation name.
// The returned error implements Unwrap() allowing errors.Is and errors.As
// to work with the wrapped error.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{op: op, err: err}
}

// wrappedError is an error with an operation context.
type wrappedError struct {
	op  string
	err error
}

func (e *wrappedError) Error() string { return fmt.Sprintf("%s: %s", e.op, e.err) }
func (e *wrappedError) Unwrap() error { return e.err }

// Invalidf returns an error wrapping ErrInvalid with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

// IsGit reports whether err is or wraps ErrGit.
func IsGit(err error) bool {
	return errors.Is(err, ErrGit)
}

// IsIO reports whether err is or wraps ErrIO.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsScriptRead reports whether err is or wraps ErrScriptRead.
func IsScriptRead(err error) bool {
	return errors.Is(err, ErrScriptRead)
}

// IsTranspile reports whether err is or wraps ErrTranspile.
func IsTranspile(err error) bool {
	return errors.Is(err, ErrTranspile)
}

// IsScriptExecution reports whether err is or wraps ErrScriptExecution.
func IsScriptExecution(err error) bool {
	return errors.Is(err, ErrScriptExecution)
}

// IsStepExecution reports whether err is or wraps ErrStepExecution.
func IsStepExecution(err error) bool {
	return errors.Is(err, ErrStepExecution)
}

// AsDirectoryCreateError reports whether err can be typed as a *DirectoryCreateError.
func AsDirectoryCreateError(err error) (*DirectoryCreateError, bool) {
	var de *DirectoryCreateError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// AsScriptError reports whether err can be typed as a *ScriptError.
func AsScriptError(err error) (*ScriptError, bool) {
	var se *ScriptError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsStepError reports whether err can be typed as a *StepError.
func AsStepError(err error) (*StepError, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// AsGitError reports whether err can be typed as a *GitError.
func AsGitError(err error) (*GitError, bool) {
	var ge *GitError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// AsConfigError reports whether err can be typed as a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
