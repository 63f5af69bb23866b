// Package cli provides Cobra command definitions for relagit.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chazuruo/relagit/internal/config"
	"github.com/chazuruo/relagit/internal/engine"
	"github.com/chazuruo/relagit/internal/gitrepo"
	"github.com/chazuruo/relagit/internal/logging"
	"github.com/chazuruo/relagit/internal/state"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	NoTUI      bool
	LogLevel   string
	LogFormat  string

	// Stderr receives diagnostics. Defaults to os.Stderr.
	Stderr io.Writer
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, g *GlobalOptions) {
	cmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "",
		"config file path (default $RELAGIT_CONFIG or ~/.relagit/config.toml)")
	cmd.PersistentFlags().BoolVar(&g.NoTUI, "no-tui", false,
		"disable interactive prompts; use plain text or JSON output")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", "",
		"log format: text, json (overrides config)")
}

// Interactive reports whether prompts may be shown.
func (g *GlobalOptions) Interactive(cfg *config.Config) bool {
	if g.NoTUI || (cfg != nil && !cfg.TUI.Enabled) {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// LoadConfig loads the config named by --config, or the detected one.
func (g *GlobalOptions) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.ConfigPath != "" {
		cfg, err = config.Load(g.ConfigPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	return cfg, nil
}

// ResolvedConfigPath returns where the config file is, or would be written.
func (g *GlobalOptions) ResolvedConfigPath(cfg *config.Config) string {
	if g.ConfigPath != "" {
		return g.ConfigPath
	}
	if p := config.DetectConfigPath(); p != "" {
		return p
	}
	return filepath.Join(cfg.Paths.Root, "config.toml")
}

func (g *GlobalOptions) stderr() io.Writer {
	if g.Stderr != nil {
		return g.Stderr
	}
	return os.Stderr
}

// session holds everything a command needs to talk to the engine.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	state  *state.State
	git    *gitrepo.Client
	engine *engine.Engine
}

// openSession loads config and host state and builds an engine. Scripts are
// not loaded until load is called.
func openSession(g *GlobalOptions) (*session, error) {
	cfg, err := g.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, g.stderr())

	st, err := state.Open(cfg.StatePath())
	if err != nil {
		return nil, err
	}
	git := gitrepo.NewClient(gitrepo.WithRemote(cfg.Git.Remote), gitrepo.WithClientLogger(logger))

	eng, err := engine.New(cfg, engine.Deps{
		Repositories: st,
		Location:     st,
		Git:          git,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, state: st, git: git, engine: eng}, nil
}

// load reloads every workflow script, logging the ones that failed.
func (s *session) load(ctx context.Context) error {
	report, err := s.engine.Reload(ctx)
	if err != nil {
		return err
	}
	for _, f := range report.Failures {
		s.logger.Warn("workflow skipped", "file", f.File, "error", f.Err)
	}
	return nil
}

// selected returns the selected repository or a helpful error.
func (s *session) selected() (state.Repository, error) {
	repo, ok := s.state.Selected()
	if !ok {
		return state.Repository{}, fmt.Errorf("no repository selected (run 'relagit repo add' or 'relagit repo select')")
	}
	return repo, nil
}

func (s *session) Close() {
	_ = s.engine.Close()
}
