package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

func TestEnsureWorkflowDirectory_Creates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "workflows")
	s := New(dir)

	got, err := s.EnsureWorkflowDirectory()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Second call is a no-op.
	_, err = s.EnsureWorkflowDirectory()
	require.NoError(t, err)
}

func TestEnsureWorkflowDirectory_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := New(path).EnsureWorkflowDirectory()
	require.Error(t, err)

	de, ok := rgerrors.AsDirectoryCreateError(err)
	require.True(t, ok)
	assert.Equal(t, path, de.Path)
}

func TestEnsureWorkflowDirectory_Denied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0755) })

	_, err := New(filepath.Join(parent, "workflows")).EnsureWorkflowDirectory()
	require.Error(t, err)

	_, ok := rgerrors.AsDirectoryCreateError(err)
	assert.True(t, ok)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestEnsureTypeStub_Idempotent(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	stub := filepath.Join(dir, StubName)

	written, err := s.EnsureTypeStub()
	require.NoError(t, err)
	assert.True(t, written)

	data, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.Equal(t, TypeStub, string(data))

	// Externally modified stub survives later calls.
	require.NoError(t, os.WriteFile(stub, []byte("// edited"), 0644))

	written, err = s.EnsureTypeStub()
	require.NoError(t, err)
	assert.False(t, written)

	data, err = os.ReadFile(stub)
	require.NoError(t, err)
	assert.Equal(t, "// edited", string(data))
}

func TestTypeStub_DeclaresModules(t *testing.T) {
	assert.Contains(t, TypeStub, `declare module "relagit:actions"`)
	assert.Contains(t, TypeStub, `declare module "relagit:client"`)
	assert.Contains(t, TypeStub, "interface WorkflowOptions")
	assert.Contains(t, TypeStub, "interface Context")
	assert.Contains(t, TypeStub, `"remote_fetch"`)
}

func TestListCandidateScripts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.ts", "a.js", "index.d.ts", "notes.md", "a.test.ts", "c.tsx", "d.json", "e.ts.bak",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(""), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.ts"), 0755))

	names, err := New(dir).ListCandidateScripts()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.ts"}, names)
}

func TestListCandidateScripts_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope")).ListCandidateScripts()
	assert.Error(t, err)
}

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"lint.ts", true},
		{"lint.js", true},
		{"index.d.ts", false},
		{"types.d.ts", false},
		{"lint.test.ts", false},
		{"lint.mjs", false},
		{"lint", false},
		{".ts", false},
		{"lint.TS", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCandidate(tt.name))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"basic", "Lint On Commit", "lint-on-commit"},
		{"underscores", "notify_slack", "notify-slack"},
		{"special chars", "Fix: Bug #123!", "fix-bug-123"},
		{"padded", "  padded title  ", "padded-title"},
		{"empty", "", ""},
		{"only symbols", "!!!", ""},
		{
			"long",
			"this is a very long workflow name that keeps going well past the limit",
			"this-is-a-very-long-workflow-name-that-keeps",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScriptID(t *testing.T) {
	assert.Equal(t, "lint-on-commit", ScriptID("Lint On Commit.ts"))
	assert.Equal(t, "deploy", ScriptID("/x/y/deploy.js"))
	assert.Equal(t, "workflow", ScriptID("___.ts"))
}

func TestGenerateUniqueSlug(t *testing.T) {
	assert.Equal(t, "lint", GenerateUniqueSlug("lint", nil))
	assert.Equal(t, "lint-1", GenerateUniqueSlug("lint", []string{"lint"}))
	assert.Equal(t, "lint-2", GenerateUniqueSlug("lint", []string{"lint", "lint-1"}))
	assert.Equal(t, "workflow", GenerateUniqueSlug("", nil))
}
