// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package paths computes where configuration files and plugin files live.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/plugindictator/dictator/internal/env"
	"github.com/plugindictator/dictator/internal/hook"
)

// DefaultFilename is the configuration file name without extension.
const DefaultFilename = "plugins"

// Extension is appended to every configuration file name.
const Extension = ".json"

// Labels of the general configuration locations, in merge order.
const (
	LabelContent     = "wp_content"
	LabelMustUse     = "mu_plugins"
	LabelPlugins     = "plugins"
	LabelParentTheme = "parent_theme"
	LabelChildTheme  = "child_theme"
)

// Location is a labeled candidate configuration file.
type Location struct {
	Label string
	Path  string
}

// Hooks are the extension points the resolver consults.
type Hooks struct {
	// Locations receives and returns the full list of general locations.
	Locations *hook.Chain[[]Location]
	// Filename receives the default file name and the directory it is for.
	Filename *hook.ArgChain[string, string]
	// PluginConfig receives a computed per-plugin config path and the plugin
	// identifier.
	PluginConfig *hook.ArgChain[string, string]
}

// Resolver computes configuration and plugin file locations for a layout.
type Resolver struct {
	layout env.Layout
	hooks  Hooks
	base   []Location
}

// NewResolver creates a resolver for the given layout. The layout is
// resolved to absolute directories first.
func NewResolver(layout env.Layout, hooks Hooks) *Resolver {
	return &Resolver{
		layout: layout.Resolve(),
		hooks:  hooks,
	}
}

// Layout returns the resolved layout.
func (r *Resolver) Layout() env.Layout {
	return r.layout
}

// ConfigPaths returns the general configuration locations in merge order:
// content root, must-use plugins, plugins, parent theme, child theme, followed
// by anything the Locations hook adds. Directories the layout leaves unset
// yield an empty path. The returned slice is a copy.
func (r *Resolver) ConfigPaths() []Location {
	if r.base == nil {
		r.base = []Location{
			{Label: LabelContent, Path: r.configFile(r.layout.ContentDir)},
			{Label: LabelMustUse, Path: r.configFile(r.layout.MustUseDir)},
			{Label: LabelPlugins, Path: r.configFile(r.layout.PluginsDir)},
			{Label: LabelParentTheme, Path: r.configFile(r.layout.TemplateDir)},
			{Label: LabelChildTheme, Path: r.configFile(r.layout.StylesheetDir)},
		}
	}
	out := make([]Location, len(r.base))
	copy(out, r.base)
	return r.hooks.Locations.Apply(out)
}

// ConfigFilename returns the configuration file name, without extension, for
// a directory.
func (r *Resolver) ConfigFilename(dir string) string {
	return r.hooks.Filename.Apply(DefaultFilename, dir)
}

// ConfigForPlugin returns the path of a plugin's own configuration file. The
// plugin directory is the first segment of slug, looked up in the plugins
// directory or, when base is set, under the custom base path. A slug without
// a directory segment yields "".
func (r *Resolver) ConfigForPlugin(slug, base string) string {
	var path string
	if dir, _, ok := strings.Cut(slug, "/"); ok && dir != "" {
		root := r.layout.PluginsDir
		if base != "" {
			root = r.CustomPluginBasePath(base)
		}
		path = r.configFile(filepath.Join(root, dir))
	}
	return r.hooks.PluginConfig.Apply(path, slug)
}

// CustomPluginBasePath anchors a path fragment at the installation root. A
// fragment already under the root is returned cleaned; anything else is
// joined onto the root, ignoring a leading separator.
func (r *Resolver) CustomPluginBasePath(fragment string) string {
	if r.within(fragment) {
		return filepath.Clean(fragment)
	}
	return filepath.Join(r.layout.Root, strings.TrimLeft(fragment, `/\`))
}

// PluginFile returns the main file of a plugin in the plugins directory.
func (r *Resolver) PluginFile(slug string) string {
	return filepath.Join(r.layout.PluginsDir, slug)
}

// CustomPluginFile returns the main file of a plugin that lives under a
// custom parent directory.
func (r *Resolver) CustomPluginFile(slug, base string) string {
	return filepath.Join(r.CustomPluginBasePath(base), slug)
}

// Safe reports whether path may be read: it must be absolute, contain no
// parent-directory segment and resolve inside the installation root.
func (r *Resolver) Safe(path string) bool {
	if path == "" || !filepath.IsAbs(path) {
		return false
	}
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		if seg == ".." {
			return false
		}
	}
	return r.within(path)
}

// Exists reports whether path is safe and names an existing regular file.
func (r *Resolver) Exists(path string) bool {
	if !r.Safe(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (r *Resolver) configFile(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, r.ConfigFilename(dir)+Extension)
}

func (r *Resolver) within(path string) bool {
	if r.layout.Root == "" || !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(r.layout.Root, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isSeparator(c rune) bool {
	return c == '/' || c == '\\'
}
