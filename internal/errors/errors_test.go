package errors_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// TestBaseErrors verifies that all base error types have correct messages.
func TestBaseErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotFound", rgerrors.ErrNotFound, "not found"},
		{"ErrAlreadyExists", rgerrors.ErrAlreadyExists, "already exists"},
		{"ErrInvalid", rgerrors.ErrInvalid, "invalid"},
		{"ErrGit", rgerrors.ErrGit, "git operation failed"},
		{"ErrIO", rgerrors.ErrIO, "I/O error"},
		{"ErrNoRepository", rgerrors.ErrNoRepository, "no repository selected"},
		{"ErrScriptRead", rgerrors.ErrScriptRead, "script read failed"},
		{"ErrTranspile", rgerrors.ErrTranspile, "transpile failed"},
		{"ErrScriptExecution", rgerrors.ErrScriptExecution, "script execution failed"},
		{"ErrStepExecution", rgerrors.ErrStepExecution, "step execution failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestScriptError verifies ScriptError formatting and stage matching.
func TestScriptError(t *testing.T) {
	tests := []struct {
		name     string
		err      *rgerrors.ScriptError
		want     string
		sentinel error
	}{
		{
			name:     "read stage",
			err:      &rgerrors.ScriptError{Stage: rgerrors.StageRead, File: "a.ts", Err: os.ErrPermission},
			want:     "workflow script a.ts: script read failed: permission denied",
			sentinel: rgerrors.ErrScriptRead,
		},
		{
			name:     "transpile stage",
			err:      &rgerrors.ScriptError{Stage: rgerrors.StageTranspile, File: "b.ts", Err: fmt.Errorf("b.ts:1:4: Expected \";\"")},
			want:     `workflow script b.ts: transpile failed: b.ts:1:4: Expected ";"`,
			sentinel: rgerrors.ErrTranspile,
		},
		{
			name:     "execute stage",
			err:      &rgerrors.ScriptError{Stage: rgerrors.StageExecute, File: "c.js", Err: fmt.Errorf("ReferenceError: x is not defined")},
			want:     "workflow script c.js: script execution failed: ReferenceError: x is not defined",
			sentinel: rgerrors.ErrScriptExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}

	t.Run("Unwrap keeps the cause", func(t *testing.T) {
		wrapped := &rgerrors.ScriptError{Stage: rgerrors.StageRead, File: "a.ts", Err: os.ErrNotExist}
		if !errors.Is(wrapped, os.ErrNotExist) {
			t.Error("ScriptError did not expose its cause to errors.Is")
		}
		if rgerrors.IsTranspile(wrapped) {
			t.Error("read-stage error matched ErrTranspile")
		}
	})
}

// TestStepError verifies StepError formatting and unwrapping.
func TestStepError(t *testing.T) {
	tests := []struct {
		name string
		err  *rgerrors.StepError
		want string
	}{
		{
			name: "named step",
			err:  &rgerrors.StepError{Workflow: "lint", Step: "eslint", Index: 1, Event: "commit", Err: fmt.Errorf("boom")},
			want: `workflow "lint" step #1 "eslint" on commit: boom`,
		},
		{
			name: "anonymous step",
			err:  &rgerrors.StepError{Workflow: "lint", Index: 0, Event: "push", Err: fmt.Errorf("boom")},
			want: `workflow "lint" step #0 on push: boom`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !rgerrors.IsStepExecution(tt.err) {
				t.Error("IsStepExecution(StepError) = false, want true")
			}
		})
	}
}

// TestDirectoryCreateError verifies DirectoryCreateError formatting and unwrapping.
func TestDirectoryCreateError(t *testing.T) {
	err := &rgerrors.DirectoryCreateError{Path: "/ro/workflows", Err: os.ErrPermission}
	if got, want := err.Error(), "create workflow directory /ro/workflows: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("Unwrap() did not return the original error for errors.Is")
	}

	result, ok := rgerrors.AsDirectoryCreateError(rgerrors.Wrap(err, "load"))
	if !ok {
		t.Fatal("AsDirectoryCreateError(wrapped) = false, want true")
	}
	if result.Path != "/ro/workflows" {
		t.Errorf("AsDirectoryCreateError returned wrong Path: got %q", result.Path)
	}
}

// TestGitError verifies GitError formatting and unwrapping.
func TestGitError(t *testing.T) {
	tests := []struct {
		name string
		err  *rgerrors.GitError
		want string
	}{
		{
			name: "with command",
			err:  &rgerrors.GitError{Op: "push", Err: rgerrors.ErrIO, Cmd: "git push origin main"},
			want: "git push: I/O error\n  cmd: git push origin main",
		},
		{
			name: "without command",
			err:  &rgerrors.GitError{Op: "commit", Err: fmt.Errorf("nothing to commit")},
			want: "git commit: nothing to commit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !rgerrors.IsGit(tt.err) {
				t.Error("IsGit(GitError) = false, want true")
			}
		})
	}
}

// TestConfigError verifies ConfigError formatting and unwrapping.
func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *rgerrors.ConfigError
		want string
	}{
		{
			name: "with path",
			err:  &rgerrors.ConfigError{Path: "~/.relagit/config.toml", Err: rgerrors.ErrInvalid},
			want: "config ~/.relagit/config.toml: invalid",
		},
		{
			name: "without path",
			err:  &rgerrors.ConfigError{Err: rgerrors.ErrNotFound},
			want: "config: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("Unwrap returns original error", func(t *testing.T) {
		wrapped := &rgerrors.ConfigError{Err: rgerrors.ErrInvalid}
		if !errors.Is(wrapped, rgerrors.ErrInvalid) {
			t.Error("Unwrap() did not return the original error for errors.Is")
		}
	})
}

// TestWrap verifies the Wrap helper function.
func TestWrap(t *testing.T) {
	wrapped := rgerrors.Wrap(rgerrors.ErrNotFound, "readFile")

	if got := wrapped.Error(); got != "readFile: not found" {
		t.Errorf("Error() = %q, want 'readFile: not found'", got)
	}
	if !errors.Is(rgerrors.Wrap(wrapped, "loadConfig"), rgerrors.ErrNotFound) {
		t.Error("Double wrap did not preserve the original error")
	}
	if rgerrors.Wrap(nil, "noop") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

// TestInvalidf verifies that Invalidf wraps ErrInvalid.
func TestInvalidf(t *testing.T) {
	err := rgerrors.Invalidf("workflow %q has no name", "a.ts")
	if !rgerrors.IsInvalid(err) {
		t.Error("IsInvalid(Invalidf(...)) = false, want true")
	}
	if got, want := err.Error(), `invalid: workflow "a.ts" has no name`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// TestAsHelpers verifies the As<TYPE>Error helpers against wrong types.
func TestAsHelpers(t *testing.T) {
	if _, ok := rgerrors.AsScriptError(rgerrors.ErrTranspile); ok {
		t.Error("AsScriptError(ErrTranspile) = true, want false")
	}
	if _, ok := rgerrors.AsStepError(rgerrors.ErrStepExecution); ok {
		t.Error("AsStepError(ErrStepExecution) = true, want false")
	}
	if _, ok := rgerrors.AsGitError(rgerrors.ErrGit); ok {
		t.Error("AsGitError(ErrGit) = true, want false")
	}
	if _, ok := rgerrors.AsConfigError(rgerrors.ErrInvalid); ok {
		t.Error("AsConfigError(ErrInvalid) = true, want false")
	}

	se := &rgerrors.ScriptError{Stage: rgerrors.StageExecute, File: "x.ts", Err: rgerrors.ErrInvalid}
	result, ok := rgerrors.AsScriptError(rgerrors.Wrap(se, "load"))
	if !ok {
		t.Fatal("AsScriptError(wrapped) = false, want true")
	}
	if result.File != "x.ts" {
		t.Errorf("AsScriptError returned wrong File: got %q", result.File)
	}
	if !rgerrors.IsInvalid(se) {
		t.Error("ScriptError did not expose ErrInvalid cause")
	}
}
