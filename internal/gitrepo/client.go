package gitrepo

import (
	"context"
	"log/slog"

	"github.com/chazuruo/relagit/internal/hostctx"
)

// Client runs Git actions against whichever repository path it is given.
// It implements hostctx.Git.
type Client struct {
	remote string
	open   func(path string) Repo
	logger *slog.Logger
}

var _ hostctx.Git = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRemote sets the remote used for pushes. Defaults to "origin".
func WithRemote(remote string) ClientOption {
	return func(c *Client) {
		if remote != "" {
			c.remote = remote
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		remote: "origin",
		open:   New,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Remote returns the configured remote name.
func (c *Client) Remote() string {
	return c.remote
}

// Commit commits whatever is staged in the repository at repoPath.
func (c *Client) Commit(ctx context.Context, repoPath, message, description string) error {
	hash, err := c.open(repoPath).Commit(ctx, message, description)
	if err != nil {
		return err
	}
	c.logger.Debug("committed", "repo", repoPath, "hash", hash)
	return nil
}

// Push pushes the current branch of the repository at repoPath.
func (c *Client) Push(ctx context.Context, repoPath string) error {
	if err := c.open(repoPath).Push(ctx, c.remote, ""); err != nil {
		return err
	}
	c.logger.Debug("pushed", "repo", repoPath, "remote", c.remote)
	return nil
}
