// Package hostctx builds the per-invocation context handed to workflow
// scripts: Git helpers bound to the selected repository and a read-only
// snapshot of that repository's record.
package hostctx

import (
	"context"
	"log/slog"
	"maps"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// Record is a repository entry in host repository state.
type Record struct {
	ID     string
	Name   string
	Path   string
	Branch string
	// Extra holds any additional fields the host keeps for the repository.
	Extra map[string]any
}

// Fields flattens the record into one map. Named fields win over Extra.
func (r Record) Fields() map[string]any {
	out := make(map[string]any, len(r.Extra)+4)
	maps.Copy(out, r.Extra)
	out["id"] = r.ID
	out["name"] = r.Name
	out["path"] = r.Path
	out["branch"] = r.Branch
	return out
}

// Selection is the host's currently selected repository.
type Selection struct {
	Path   string
	ID     string
	Branch string
}

// RepositoryState looks up repository records.
type RepositoryState interface {
	GetByPath(path string) (Record, bool)
	GetByID(id string) (Record, bool)
}

// LocationState reports the selected repository.
type LocationState interface {
	SelectedRepository() (Selection, bool)
}

// Git performs Git actions on a repository path.
type Git interface {
	Commit(ctx context.Context, repoPath, message, description string) error
	Push(ctx context.Context, repoPath string) error
}

// Context is a point-in-time view for one script access. It holds no
// references into host state.
type Context struct {
	Git        GitHelpers
	Repository map[string]any
}

// Path returns the repository path captured in the snapshot.
func (c Context) Path() string {
	p, _ := c.Repository["path"].(string)
	return p
}

// GitHelpers are Git actions bound to the repository selected at build time.
type GitHelpers struct {
	Push   func(ctx context.Context) error
	Commit func(ctx context.Context, message, description string) error
}

// Builder assembles Contexts from host collaborators.
type Builder struct {
	repos    RepositoryState
	location LocationState
	git      Git
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder.
func NewBuilder(repos RepositoryState, location LocationState, git Git, opts ...Option) *Builder {
	b := &Builder{
		repos:    repos,
		location: location,
		git:      git,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reads the current selection and returns a fresh Context. It never
// caches: every call observes the selection at that moment.
func (b *Builder) Build(ctx context.Context) Context {
	sel, ok := Selection{}, false
	if b.location != nil {
		sel, ok = b.location.SelectedRepository()
	}
	if !ok || sel.Path == "" {
		return Context{
			Git:        b.unboundHelpers(),
			Repository: map[string]any{"path": nil},
		}
	}

	repo := map[string]any{"path": sel.Path}
	if rec, found := b.lookup(sel); found {
		maps.Copy(repo, rec.Fields())
	}

	return Context{
		Git:        b.boundHelpers(repo["path"].(string)),
		Repository: repo,
	}
}

func (b *Builder) lookup(sel Selection) (Record, bool) {
	if b.repos == nil {
		return Record{}, false
	}
	if rec, ok := b.repos.GetByPath(sel.Path); ok {
		return rec, true
	}
	if sel.ID != "" {
		if rec, ok := b.repos.GetByID(sel.ID); ok && rec.Path == sel.Path {
			return rec, true
		}
	}
	return Record{}, false
}

func (b *Builder) boundHelpers(path string) GitHelpers {
	return GitHelpers{
		Push: func(ctx context.Context) error {
			if b.git == nil {
				return rgerrors.Wrap(rgerrors.ErrNotFound, "git integration")
			}
			b.logger.Debug("workflow git push", "repo", path)
			return b.git.Push(ctx, path)
		},
		Commit: func(ctx context.Context, message, description string) error {
			if b.git == nil {
				return rgerrors.Wrap(rgerrors.ErrNotFound, "git integration")
			}
			if message == "" {
				return rgerrors.Invalidf("commit message is required")
			}
			b.logger.Debug("workflow git commit", "repo", path, "message", message)
			return b.git.Commit(ctx, path, message, description)
		},
	}
}

func (b *Builder) unboundHelpers() GitHelpers {
	return GitHelpers{
		Push: func(context.Context) error {
			return rgerrors.Wrap(rgerrors.ErrNoRepository, "push")
		},
		Commit: func(context.Context, string, string) error {
			return rgerrors.Wrap(rgerrors.ErrNoRepository, "commit")
		},
	}
}
