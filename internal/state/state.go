// Package state persists the CLI host's repository list and selection.
//
// The file is YAML:
//
//	selected: /home/me/src/project
//	repositories:
//	  - id: 2b0c...
//	    name: project
//	    path: /home/me/src/project
//	    branch: main
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
	"github.com/chazuruo/relagit/internal/hostctx"
)

// CurrentVersion is the state file schema version.
const CurrentVersion = 1

// Repository is a repository known to the host.
type Repository struct {
	ID      string         `yaml:"id" json:"id"`
	Name    string         `yaml:"name" json:"name"`
	Path    string         `yaml:"path" json:"path"`
	Branch  string         `yaml:"branch,omitempty" json:"branch,omitempty"`
	AddedAt time.Time      `yaml:"added_at" json:"added_at"`
	Extra   map[string]any `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Record converts the repository to the shape scripts see.
func (r Repository) Record() hostctx.Record {
	return hostctx.Record{
		ID:     r.ID,
		Name:   r.Name,
		Path:   r.Path,
		Branch: r.Branch,
		Extra:  r.Extra,
	}
}

type file struct {
	Version      int          `yaml:"version"`
	Selected     string       `yaml:"selected,omitempty"`
	Repositories []Repository `yaml:"repositories"`
}

// State is the in-memory host state backed by a YAML file. It implements
// hostctx.RepositoryState and hostctx.LocationState.
type State struct {
	mu   sync.RWMutex
	path string
	data file
}

var (
	_ hostctx.RepositoryState = (*State)(nil)
	_ hostctx.LocationState   = (*State)(nil)
)

// Open loads the state file at path. A missing file yields empty state.
func Open(path string) (*State, error) {
	s := &State{path: path, data: file{Version: CurrentVersion}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if s.data.Version == 0 {
		s.data.Version = CurrentVersion
	}
	return s, nil
}

// Path returns the backing file path.
func (s *State) Path() string {
	return s.path
}

// Save writes the state to disk, replacing the file atomically.
func (s *State) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(&s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return rgerrors.Wrap(err, "create state directory")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return rgerrors.Wrap(err, "write state file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return rgerrors.Wrap(err, "write state file")
	}
	return nil
}

// Add registers a repository. The path is made absolute, the name defaults
// to the directory name and a fresh ID is assigned.
func (s *State) Add(repo Repository) (Repository, error) {
	if repo.Path == "" {
		return Repository{}, rgerrors.Invalidf("repository path is required")
	}
	abs, err := filepath.Abs(repo.Path)
	if err != nil {
		return Repository{}, rgerrors.Wrap(err, "resolve repository path")
	}
	repo.Path = abs
	if repo.Name == "" {
		repo.Name = filepath.Base(abs)
	}
	repo.ID = uuid.NewString()
	if repo.AddedAt.IsZero() {
		repo.AddedAt = time.Now().UTC().Truncate(time.Second)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(abs) >= 0 {
		return Repository{}, fmt.Errorf("repository %s: %w", abs, rgerrors.ErrAlreadyExists)
	}
	s.data.Repositories = append(s.data.Repositories, repo)
	return repo, nil
}

// Remove drops the repository matching ref (a path or an ID). Removing the
// selected repository clears the selection.
func (s *State) Remove(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ref)
	if i < 0 {
		return false
	}
	if s.data.Selected == s.data.Repositories[i].Path {
		s.data.Selected = ""
	}
	s.data.Repositories = slices.Delete(s.data.Repositories, i, i+1)
	return true
}

// Select marks the repository matching ref (a path or an ID) as selected.
func (s *State) Select(ref string) (Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ref)
	if i < 0 {
		return Repository{}, fmt.Errorf("repository %q: %w", ref, rgerrors.ErrNotFound)
	}
	s.data.Selected = s.data.Repositories[i].Path
	return s.data.Repositories[i], nil
}

// SetBranch records the checked-out branch of the repository at path.
func (s *State) SetBranch(path, branch string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(path)
	if i < 0 {
		return false
	}
	s.data.Repositories[i].Branch = branch
	return true
}

// List returns a copy of every repository in insertion order.
func (s *State) List() []Repository {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.data.Repositories)
}

// Selected returns the selected repository.
func (s *State) Selected() (Repository, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Selected == "" {
		return Repository{}, false
	}
	i := s.indexOf(s.data.Selected)
	if i < 0 {
		return Repository{}, false
	}
	return s.data.Repositories[i], true
}

// GetByPath implements hostctx.RepositoryState.
func (s *State) GetByPath(path string) (hostctx.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data.Repositories {
		if r.Path == path {
			return r.Record(), true
		}
	}
	return hostctx.Record{}, false
}

// GetByID implements hostctx.RepositoryState.
func (s *State) GetByID(id string) (hostctx.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data.Repositories {
		if r.ID == id {
			return r.Record(), true
		}
	}
	return hostctx.Record{}, false
}

// SelectedRepository implements hostctx.LocationState. The selection is
// reported even when its record has been removed from the list.
func (s *State) SelectedRepository() (hostctx.Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data.Selected == "" {
		return hostctx.Selection{}, false
	}
	sel := hostctx.Selection{Path: s.data.Selected}
	if i := s.indexOf(s.data.Selected); i >= 0 {
		sel.ID = s.data.Repositories[i].ID
		sel.Branch = s.data.Repositories[i].Branch
	}
	return sel, true
}

// indexOf finds a repository by ID or path. Relative paths are resolved
// against the working directory. Callers hold s.mu.
func (s *State) indexOf(ref string) int {
	if ref == "" {
		return -1
	}
	path := ref
	if abs, err := filepath.Abs(ref); err == nil {
		path = abs
	}
	return slices.IndexFunc(s.data.Repositories, func(r Repository) bool {
		return r.ID == ref || r.Path == ref || r.Path == path
	})
}
