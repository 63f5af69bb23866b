package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that default values are correctly set.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		// Paths section defaults
		{"paths.workflows_dir", cfg.Paths.WorkflowsDir, "workflows"},
		{"paths.state_file", cfg.Paths.StateFile, "state.yaml"},

		// Dispatch section defaults
		{"dispatch.default_policy", cfg.Dispatch.DefaultPolicy, PolicyAwait},
		{"dispatch.parallel", cfg.Dispatch.Parallel, false},
		{"dispatch.step_timeout", cfg.Dispatch.StepTimeout, "0s"},

		// Git section defaults
		{"git.remote", cfg.Git.Remote, "origin"},

		// Log section defaults
		{"log.level", cfg.Log.Level, "info"},
		{"log.format", cfg.Log.Format, "text"},

		// Watch section defaults
		{"watch.debounce", cfg.Watch.Debounce, "300ms"},

		// TUI section defaults
		{"tui.enabled", cfg.TUI.Enabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !strings.HasSuffix(cfg.Paths.Root, ".relagit") {
		t.Errorf("paths.root = %q, want a .relagit directory", cfg.Paths.Root)
	}
}

// TestValidate_ValidConfig tests that the default config passes validation.
func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() returned error: %v", err)
	}
}

// TestValidate_InvalidValues tests validation of each constrained field.
func TestValidate_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty root",
			mutate:  func(c *Config) { c.Paths.Root = "" },
			wantErr: "paths.root cannot be empty",
		},
		{
			name:    "empty workflows dir",
			mutate:  func(c *Config) { c.Paths.WorkflowsDir = "" },
			wantErr: "paths.workflows_dir cannot be empty",
		},
		{
			name:    "workflows dir escapes root",
			mutate:  func(c *Config) { c.Paths.WorkflowsDir = "../elsewhere" },
			wantErr: "cannot contain '..'",
		},
		{
			name:    "empty state file",
			mutate:  func(c *Config) { c.Paths.StateFile = "" },
			wantErr: "paths.state_file cannot be empty",
		},
		{
			name:    "unknown default policy",
			mutate:  func(c *Config) { c.Dispatch.DefaultPolicy = "later" },
			wantErr: "dispatch.default_policy must be one of",
		},
		{
			name:    "unknown event policy",
			mutate:  func(c *Config) { c.Dispatch.Events = map[string]string{"commit": "never"} },
			wantErr: "dispatch.events.commit must be one of",
		},
		{
			name:    "bad step timeout",
			mutate:  func(c *Config) { c.Dispatch.StepTimeout = "soon" },
			wantErr: "dispatch.step_timeout must be a duration",
		},
		{
			name:    "negative step timeout",
			mutate:  func(c *Config) { c.Dispatch.StepTimeout = "-1s" },
			wantErr: "dispatch.step_timeout must be >= 0",
		},
		{
			name:    "empty remote",
			mutate:  func(c *Config) { c.Git.Remote = "" },
			wantErr: "git.remote cannot be empty",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level must be one of",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format must be one of",
		},
		{
			name:    "zero debounce",
			mutate:  func(c *Config) { c.Watch.Debounce = "0s" },
			wantErr: "watch.debounce must be a positive duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() returned nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestPolicyFor tests per-event policy lookup with fallback to the default.
func TestPolicyFor(t *testing.T) {
	d := DispatchConfig{
		DefaultPolicy: PolicyAwait,
		Events: map[string]string{
			"push":   PolicyBackground,
			"commit": "",
		},
	}

	tests := []struct {
		event string
		want  string
	}{
		{"push", PolicyBackground},
		{"commit", PolicyAwait},
		{"release", PolicyAwait},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			if got := d.PolicyFor(tt.event); got != tt.want {
				t.Errorf("PolicyFor(%q) = %q, want %q", tt.event, got, tt.want)
			}
		})
	}
}

// TestDurations tests the parsed duration accessors.
func TestDurations(t *testing.T) {
	d := DispatchConfig{StepTimeout: "1m30s"}
	if got := d.StepTimeoutDuration(); got != 90*time.Second {
		t.Errorf("StepTimeoutDuration() = %v, want 1m30s", got)
	}
	d.StepTimeout = "garbage"
	if got := d.StepTimeoutDuration(); got != 0 {
		t.Errorf("StepTimeoutDuration() with bad value = %v, want 0", got)
	}

	w := WatchConfig{Debounce: "50ms"}
	if got := w.DebounceDuration(); got != 50*time.Millisecond {
		t.Errorf("DebounceDuration() = %v, want 50ms", got)
	}
	w.Debounce = ""
	if got := w.DebounceDuration(); got != 300*time.Millisecond {
		t.Errorf("DebounceDuration() fallback = %v, want 300ms", got)
	}
}

// TestPaths tests resolution of relative and absolute paths against the root.
func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.Root = "/home/dev/.relagit"

	if got, want := cfg.WorkflowsPath(), filepath.Join("/home/dev/.relagit", "workflows"); got != want {
		t.Errorf("WorkflowsPath() = %q, want %q", got, want)
	}
	if got, want := cfg.StatePath(), filepath.Join("/home/dev/.relagit", "state.yaml"); got != want {
		t.Errorf("StatePath() = %q, want %q", got, want)
	}

	cfg.Paths.WorkflowsDir = "/srv/workflows"
	if got := cfg.WorkflowsPath(); got != "/srv/workflows" {
		t.Errorf("WorkflowsPath() with absolute dir = %q, want /srv/workflows", got)
	}
}
