// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package env describes the host installation the engine runs against and
// loads the tool's own settings.
package env

import "path/filepath"

// Conventional directory names below the installation root.
const (
	DefaultContentDir = "wp-content"
	DefaultMustUseDir = "mu-plugins"
	DefaultPluginsDir = "plugins"
)

// Layout locates the host's directories. Root is the installation root that
// every other path must live under.
type Layout struct {
	Root          string `koanf:"root"           json:"root"`
	ContentDir    string `koanf:"content_dir"    json:"content_dir"`
	MustUseDir    string `koanf:"mu_plugins_dir" json:"mu_plugins_dir"`
	PluginsDir    string `koanf:"plugins_dir"    json:"plugins_dir"`
	TemplateDir   string `koanf:"template_dir"   json:"template_dir"`
	StylesheetDir string `koanf:"stylesheet_dir" json:"stylesheet_dir"`
}

// Resolve returns a copy with every directory made absolute. Relative
// directories are taken relative to Root. Unset content, must-use and plugin
// directories fall back to the conventional layout; unset theme directories
// stay empty.
func (l Layout) Resolve() Layout {
	out := l
	if out.Root == "" {
		return out
	}
	out.Root = filepath.Clean(out.Root)

	out.ContentDir = out.under(out.ContentDir, filepath.Join(out.Root, DefaultContentDir))
	out.MustUseDir = out.under(out.MustUseDir, filepath.Join(out.ContentDir, DefaultMustUseDir))
	out.PluginsDir = out.under(out.PluginsDir, filepath.Join(out.ContentDir, DefaultPluginsDir))
	out.TemplateDir = out.under(out.TemplateDir, "")
	out.StylesheetDir = out.under(out.StylesheetDir, "")
	return out
}

func (l Layout) under(dir, fallback string) string {
	if dir == "" {
		return fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(l.Root, dir)
}
