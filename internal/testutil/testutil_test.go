package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteScript(t *testing.T) {
	dir := t.TempDir()
	path := WriteScript(t, dir, "a.ts", "export {}")

	assert.Equal(t, filepath.Join(dir, "a.ts"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export {}", string(data))
}

func TestGitRepo(t *testing.T) {
	dir := GitRepo(t)

	assert.Equal(t, "main", Git(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, "initial commit", Git(t, dir, "log", "-1", "--format=%s"))
}
