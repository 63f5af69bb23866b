// Package config provides configuration management for relagit.
//
// This file contains config loading functionality including:
// - config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DetectConfigPath returns the config file to use, or empty string if none exists.
//
// Search order:
// 1. $RELAGIT_CONFIG
// 2. ~/.relagit/config.toml
func DetectConfigPath() string {
	if p := os.Getenv("RELAGIT_CONFIG"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	configPath := filepath.Join(DefaultRoot(), "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads the detected config file, or returns defaults
// (with environment overrides applied) when none exists.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
		return cfg, nil
	}

	return Load(configPath)
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: RELAGIT_<SECTION>_<FIELD>
//
// Examples:
// - RELAGIT_PATHS_ROOT overrides [paths].root
// - RELAGIT_DISPATCH_DEFAULT_POLICY overrides [dispatch].default_policy
// - RELAGIT_LOG_LEVEL overrides [log].level
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	// Paths section
	applyString("RELAGIT_PATHS_ROOT", &c.Paths.Root)
	applyString("RELAGIT_PATHS_WORKFLOWS_DIR", &c.Paths.WorkflowsDir)
	applyString("RELAGIT_PATHS_STATE_FILE", &c.Paths.StateFile)

	// Dispatch section
	applyString("RELAGIT_DISPATCH_DEFAULT_POLICY", &c.Dispatch.DefaultPolicy)
	applyBool("RELAGIT_DISPATCH_PARALLEL", &c.Dispatch.Parallel)
	applyString("RELAGIT_DISPATCH_STEP_TIMEOUT", &c.Dispatch.StepTimeout)

	// Git section
	applyString("RELAGIT_GIT_REMOTE", &c.Git.Remote)

	// Log section
	applyString("RELAGIT_LOG_LEVEL", &c.Log.Level)
	applyString("RELAGIT_LOG_FORMAT", &c.Log.Format)

	// Watch section
	applyString("RELAGIT_WATCH_DEBOUNCE", &c.Watch.Debounce)

	// TUI section
	applyBool("RELAGIT_TUI_ENABLED", &c.TUI.Enabled)
}

// expandPath expands ~ to the home directory in the root path.
func expandPath(c *Config) {
	if strings.HasPrefix(c.Paths.Root, "~/") || c.Paths.Root == "~" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.Paths.Root = filepath.Join(homeDir, strings.TrimPrefix(c.Paths.Root, "~"))
		}
	}
}
