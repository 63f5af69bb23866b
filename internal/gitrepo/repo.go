// Package gitrepo provides a Git repository abstraction.
// It shells out to the git binary for operations, making it
// a lightweight wrapper around standard Git functionality.
package gitrepo

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	rgerrors "github.com/chazuruo/relagit/internal/errors"
)

// gitRepo represents a Git repository.
type gitRepo struct {
	path string
}

// Repo is the interface for Git repository operations.
type Repo interface {
	// Path returns the repository path.
	Path() string

	// Init initializes a new Git repository with the given options.
	Init(ctx context.Context, opts InitOptions) error

	// IsInitialized returns true if the repository is already initialized.
	IsInitialized(ctx context.Context) bool

	// Status returns the current status of the repository.
	Status(ctx context.Context) (Status, error)

	// Add stages a specific file for commit.
	Add(ctx context.Context, path string) error

	// AddAll stages all changes for commit.
	AddAll(ctx context.Context) error

	// Commit commits the staged changes. A non-empty description becomes
	// the commit body.
	Commit(ctx context.Context, message, description string) (hash string, err error)

	// Push pushes branch to remote. An empty branch pushes the current one.
	Push(ctx context.Context, remote, branch string) error

	// Fetch fetches updates from a remote repository.
	Fetch(ctx context.Context, remote string) error

	// GetCurrentBranch returns the current branch name.
	GetCurrentBranch(ctx context.Context) (string, error)

	// GetConfig reads a git config value.
	GetConfig(ctx context.Context, key string) (string, error)

	// GitDir returns the absolute path of the .git directory.
	GitDir(ctx context.Context) (string, error)
}

// InitOptions contains options for initializing a repository.
type InitOptions struct {
	// DefaultBranch is the branch name to use (default: git's own default).
	DefaultBranch string
	// Bare creates a bare repository if true.
	Bare bool
}

// New creates a new Repo instance for the given path.
func New(path string) Repo {
	return &gitRepo{path: path}
}

// Path returns the repository path.
func (r *gitRepo) Path() string {
	return r.path
}

// runGit executes a git command with the given arguments.
func (r *gitRepo) runGit(ctx context.Context, op string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	output, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			msg = err.Error()
		}
		return "", &rgerrors.GitError{
			Op:  op,
			Err: fmt.Errorf("%w: %s", err, msg),
			Cmd: "git " + strings.Join(args, " "),
		}
	}
	return string(output), nil
}

// Add stages a specific file for commit.
func (r *gitRepo) Add(ctx context.Context, path string) error {
	_, err := r.runGit(ctx, "add", "add", "--", path)
	return err
}

// AddAll stages all changes for commit.
func (r *gitRepo) AddAll(ctx context.Context) error {
	_, err := r.runGit(ctx, "add", "add", "-A")
	return err
}

// Commit commits the staged changes and returns the new HEAD hash.
func (r *gitRepo) Commit(ctx context.Context, message, description string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", rgerrors.Invalidf("commit message is required")
	}
	args := []string{"commit", "-m", message}
	if description != "" {
		args = append(args, "-m", description)
	}
	if _, err := r.runGit(ctx, "commit", args...); err != nil {
		return "", err
	}

	output, err := r.runGit(ctx, "commit", "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Push pushes branch to remote.
func (r *gitRepo) Push(ctx context.Context, remote, branch string) error {
	if remote == "" {
		remote = "origin"
	}
	args := []string{"push", remote}
	if branch != "" {
		args = append(args, branch)
	} else {
		args = append(args, "HEAD")
	}
	_, err := r.runGit(ctx, "push", args...)
	return err
}

// Fetch fetches updates from a remote repository.
func (r *gitRepo) Fetch(ctx context.Context, remote string) error {
	if remote == "" {
		remote = "origin"
	}
	_, err := r.runGit(ctx, "fetch", "fetch", remote)
	return err
}

// GetCurrentBranch returns the current branch name.
func (r *gitRepo) GetCurrentBranch(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "branch", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// GetConfig reads a git config value.
func (r *gitRepo) GetConfig(ctx context.Context, key string) (string, error) {
	output, err := r.runGit(ctx, "config", "config", "--get", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// GitDir returns the absolute path of the .git directory.
func (r *gitRepo) GitDir(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	dir := strings.TrimSpace(output)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.path, dir)
	}
	return dir, nil
}
