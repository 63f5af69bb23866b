// Package config provides configuration management for relagit.
//
// The configuration is stored in TOML format and supports validation
// and default values for all fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Dispatch policies decide whether the code path that emits a lifecycle
// event waits for the matched workflows to finish.
const (
	// PolicyAwait dispatches synchronously and returns the report.
	PolicyAwait = "await"
	// PolicyBackground dispatches on a goroutine and returns immediately.
	PolicyBackground = "background"
)

// Config is the top-level configuration struct for relagit.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Git      GitConfig      `toml:"git"`
	Log      LogConfig      `toml:"log"`
	Watch    WatchConfig    `toml:"watch"`
	TUI      TUIConfig      `toml:"tui"`
}

// PathsConfig contains filesystem locations.
type PathsConfig struct {
	// Root is the per-user configuration root (default: ~/.relagit).
	Root string `toml:"root"`

	// WorkflowsDir holds user workflow scripts. Relative values are
	// resolved against Root.
	WorkflowsDir string `toml:"workflows_dir"`

	// StateFile holds the repository list and the selected repository.
	// Relative values are resolved against Root.
	StateFile string `toml:"state_file"`
}

// DispatchConfig contains event dispatch settings.
type DispatchConfig struct {
	// DefaultPolicy applies to events without an entry in Events.
	// Valid values: "await", "background".
	DefaultPolicy string `toml:"default_policy"`

	// Parallel runs distinct matched workflows concurrently. Steps within
	// one workflow always run in declared order.
	Parallel bool `toml:"parallel"`

	// StepTimeout bounds how long a single step may run, as a Go duration
	// string. "0s" (the default) waits indefinitely.
	StepTimeout string `toml:"step_timeout"`

	// Events overrides the policy per lifecycle event.
	Events map[string]string `toml:"events"`
}

// GitConfig contains git-specific settings.
type GitConfig struct {
	// Remote is the remote used by push and fetch (default: "origin").
	Remote string `toml:"remote"`
}

// LogConfig contains diagnostic output settings.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string `toml:"level"`

	// Format is the handler format: "text" or "json".
	Format string `toml:"format"`
}

// WatchConfig contains settings for the watch command.
type WatchConfig struct {
	// Debounce is the quiet period before a change triggers a reload,
	// as a Go duration string.
	Debounce string `toml:"debounce"`
}

// TUIConfig contains interactive prompt settings.
type TUIConfig struct {
	// Enabled controls whether interactive prompts may be shown.
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Root:         DefaultRoot(),
			WorkflowsDir: "workflows",
			StateFile:    "state.yaml",
		},
		Dispatch: DispatchConfig{
			DefaultPolicy: PolicyAwait,
			Parallel:      false,
			StepTimeout:   "0s",
			Events:        map[string]string{},
		},
		Git: GitConfig{
			Remote: "origin",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		TUI: TUIConfig{
			Enabled: true,
		},
	}
}

// DefaultRoot returns ~/.relagit, or .relagit when the home directory is unknown.
func DefaultRoot() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".relagit"
	}
	return filepath.Join(homeDir, ".relagit")
}

// WorkflowsPath returns the absolute workflow script directory.
func (c *Config) WorkflowsPath() string {
	return c.resolve(c.Paths.WorkflowsDir)
}

// StatePath returns the absolute host state file path.
func (c *Config) StatePath() string {
	return c.resolve(c.Paths.StateFile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.Root, p)
}

// PolicyFor returns the dispatch policy for an event.
func (d DispatchConfig) PolicyFor(event string) string {
	if p, ok := d.Events[event]; ok && p != "" {
		return p
	}
	return d.DefaultPolicy
}

// StepTimeoutDuration returns the parsed step timeout; zero means none.
func (d DispatchConfig) StepTimeoutDuration() time.Duration {
	dur, err := time.ParseDuration(d.StepTimeout)
	if err != nil {
		return 0
	}
	return dur
}

// DebounceDuration returns the parsed debounce duration.
func (w WatchConfig) DebounceDuration() time.Duration {
	dur, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return dur
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
func (c *Config) Validate() error {
	// Validate Paths section
	if c.Paths.Root == "" {
		return fmt.Errorf("paths.root cannot be empty")
	}
	if c.Paths.WorkflowsDir == "" {
		return fmt.Errorf("paths.workflows_dir cannot be empty")
	}
	if c.Paths.StateFile == "" {
		return fmt.Errorf("paths.state_file cannot be empty")
	}
	if strings.Contains(c.Paths.WorkflowsDir, "..") {
		return fmt.Errorf("paths.workflows_dir cannot contain '..': %q", c.Paths.WorkflowsDir)
	}

	// Validate Dispatch section
	validPolicies := map[string]bool{
		PolicyAwait:      true,
		PolicyBackground: true,
	}
	if !validPolicies[c.Dispatch.DefaultPolicy] {
		return fmt.Errorf("dispatch.default_policy must be one of: await, background; got %q", c.Dispatch.DefaultPolicy)
	}
	for event, policy := range c.Dispatch.Events {
		if !validPolicies[policy] {
			return fmt.Errorf("dispatch.events.%s must be one of: await, background; got %q", event, policy)
		}
	}
	timeout, err := time.ParseDuration(c.Dispatch.StepTimeout)
	if err != nil {
		return fmt.Errorf("dispatch.step_timeout must be a duration: %w", err)
	}
	if timeout < 0 {
		return fmt.Errorf("dispatch.step_timeout must be >= 0; got %s", timeout)
	}

	// Validate Git section
	if c.Git.Remote == "" {
		return fmt.Errorf("git.remote cannot be empty")
	}

	// Validate Log section
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be one of: text, json; got %q", c.Log.Format)
	}

	// Validate Watch section
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d <= 0 {
		return fmt.Errorf("watch.debounce must be a positive duration; got %q", c.Watch.Debounce)
	}

	return nil
}
