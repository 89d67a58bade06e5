// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package env

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "dictator"

// ConfigDir returns the XDG config directory for the tool.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// StateDir returns the XDG state directory for the tool.
// Checks XDG_STATE_HOME first, falls back to ~/.local/state.
func StateDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile is read when no --config flag is given.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultStorePath is the bolt option store used when none is configured.
func DefaultStorePath() string {
	return filepath.Join(StateDir(), "options.db")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.Code("ENSURE_DIR_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
