// Package testutil provides helper functions for testing.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteScript writes a workflow script into dir and returns its path.
func WriteScript(t *testing.T, dir, name, src string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644), "write workflow script")
	return path
}

// RequireGit skips the test when no git binary is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// Git runs git in dir and returns its trimmed output. The test fails on error.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// ConfigureGit sets a test identity and disables commit signing in dir.
func ConfigureGit(t *testing.T, dir string) {
	t.Helper()
	Git(t, dir, "config", "user.email", "test@example.com")
	Git(t, dir, "config", "user.name", "Test User")
	Git(t, dir, "config", "commit.gpgsign", "false")
}

// GitRepo creates a repository on branch main with one commit and returns
// its path. The directory is removed when the test completes.
func GitRepo(t *testing.T) string {
	t.Helper()
	RequireGit(t)

	dir := t.TempDir()
	Git(t, dir, "init", "--initial-branch=main")
	ConfigureGit(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("initial"), 0644))
	Git(t, dir, "add", "README.md")
	Git(t, dir, "commit", "-m", "initial commit")
	return dir
}
