// Package store manages the on-disk directory of user workflow scripts.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// scriptExtensions is the allow-list of script suffixes.
var scriptExtensions = []string{"ts", "js"}

// Store is the workflow script directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. Nothing is touched on disk until one of
// the Ensure methods runs.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the workflow directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute path of a script in the directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// EnsureWorkflowDirectory creates the workflow directory if it is missing.
// A filesystem refusal is returned as a *errors.DirectoryCreateError.
func (s *Store) EnsureWorkflowDirectory() (string, error) {
	info, err := os.Stat(s.dir)
	if err == nil {
		if !info.IsDir() {
			return "", &rgerrors.DirectoryCreateError{Path: s.dir, Err: fmt.Errorf("%w: not a directory", rgerrors.ErrInvalid)}
		}
		return s.dir, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", &rgerrors.DirectoryCreateError{Path: s.dir, Err: err}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", &rgerrors.DirectoryCreateError{Path: s.dir, Err: err}
	}
	return s.dir, nil
}

// EnsureTypeStub writes the declaration stub if it does not exist yet.
// An existing stub is never overwritten. Reports whether a file was written.
func (s *Store) EnsureTypeStub() (bool, error) {
	path := s.Path(StubName)
	if _, err := os.Lstat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	// O_EXCL keeps a concurrently created stub intact.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(TypeStub); err != nil {
		f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", path, err)
	}
	return true, nil
}

// ListCandidateScripts returns the sorted file names that qualify as
// workflow scripts.
func (s *Store) ListCandidateScripts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read workflow directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsCandidate(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// IsCandidate reports whether a file name is a loadable script: everything
// after the first dot must be exactly one allowed extension, so "a.ts"
// qualifies while "a.test.ts", "index.d.ts" and ".ts" do not.
func IsCandidate(name string) bool {
	if strings.HasSuffix(name, ".d.ts") {
		return false
	}
	i := strings.Index(name, ".")
	if i <= 0 {
		return false
	}
	return slices.Contains(scriptExtensions, name[i+1:])
}
