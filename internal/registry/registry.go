// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package registry classifies the plugins declared in a configuration tree.
//
// Every activate entry without a custom path is either required (force) or
// recommended. Every deactivate entry is either force-deactivated or
// soft-deactivated, and removes any clashing activation, so deactivation
// always wins for the same plugin. Entries with a custom path are kept apart,
// bucketed by the checkpoint tier that loads them.
package registry

import (
	"log/slog"
	"path/filepath"
	"slices"
	"sort"

	"github.com/plugindictator/dictator/internal/config"
)

// DefaultPriority is the tier used for custom-path plugins without an
// explicit priority.
const DefaultPriority = 1

// maxTier is the last checkpoint tier.
const maxTier = 2

// CustomPlugin is a plugin loaded from outside the standard plugins
// directories.
type CustomPlugin struct {
	Slug     string
	Path     string
	Priority int
}

// Registry holds the classification of a configuration tree. It is built
// once and read-only afterwards.
type Registry struct {
	required               []string
	recommended            []string
	deactivatedRequired    []string
	deactivatedRecommended []string
	custom                 map[int][]CustomPlugin
	settings               map[string]config.Settings

	defaultPriority int
	pathFunc        func(slug, base string) string
	logger          *slog.Logger
}

// Option configures a Registry build.
type Option func(*Registry)

// WithDefaultPriority sets the tier for custom-path plugins that declare
// none.
func WithDefaultPriority(priority int) Option {
	return func(r *Registry) { r.defaultPriority = priority }
}

// WithPathFunc sets the function that resolves a custom-path plugin's main
// file from its slug and base path fragment.
func WithPathFunc(fn func(slug, base string) string) Option {
	return func(r *Registry) { r.pathFunc = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// Build classifies every entry of tree. Activate entries are processed
// first, then deactivate entries.
func Build(tree config.Tree, opts ...Option) *Registry {
	r := &Registry{
		custom:          make(map[int][]CustomPlugin),
		settings:        make(map[string]config.Settings),
		defaultPriority: DefaultPriority,
		pathFunc:        func(slug, base string) string { return filepath.Join(base, slug) },
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, e := range tree.Activate {
		if e.Settings.IsCustomPath() {
			r.addCustom(e.Slug, e.Settings)
			continue
		}
		r.register(e.Slug, e.Settings)
	}

	for _, e := range tree.Deactivate {
		if e.Settings.IsCustomPath() {
			r.removeCustom(e.Slug, e.Settings)
			continue
		}
		r.deactivate(e.Slug, e.Settings.Force)
	}

	return r
}

func (r *Registry) register(slug string, settings config.Settings) {
	if _, ok := r.settings[slug]; !ok {
		r.settings[slug] = settings
	}
	if settings.Force {
		r.required = appendUnique(r.required, slug)
		return
	}
	r.recommended = appendUnique(r.recommended, slug)
}

func (r *Registry) deactivate(slug string, force bool) {
	if force {
		r.deactivatedRequired = appendUnique(r.deactivatedRequired, slug)
	} else {
		r.deactivatedRecommended = appendUnique(r.deactivatedRecommended, slug)
	}

	if i := slices.Index(r.required, slug); i >= 0 {
		r.required = slices.Delete(r.required, i, i+1)
		r.logger.Debug("deactivation overrides required plugin", "plugin", slug)
		return
	}
	if i := slices.Index(r.recommended, slug); i >= 0 {
		r.recommended = slices.Delete(r.recommended, i, i+1)
		r.logger.Debug("deactivation overrides recommended plugin", "plugin", slug)
	}
}

func (r *Registry) addCustom(slug string, settings config.Settings) {
	priority := settings.PriorityOr(r.defaultPriority)
	if priority < 0 || priority > maxTier {
		r.logger.Warn("custom path plugin priority has no checkpoint",
			"plugin", slug, "priority", priority)
	}
	bucket := r.custom[priority]
	for _, p := range bucket {
		if p.Slug == slug {
			return
		}
	}
	r.custom[priority] = append(bucket, CustomPlugin{
		Slug:     slug,
		Path:     r.pathFunc(slug, settings.Path),
		Priority: priority,
	})
	r.settings[slug] = settings
}

func (r *Registry) removeCustom(slug string, settings config.Settings) {
	priority := settings.PriorityOr(r.defaultPriority)
	bucket := r.custom[priority]
	i := slices.IndexFunc(bucket, func(p CustomPlugin) bool { return p.Slug == slug })
	if i < 0 {
		return
	}
	bucket = slices.Delete(bucket, i, i+1)
	if len(bucket) == 0 {
		delete(r.custom, priority)
	} else {
		r.custom[priority] = bucket
	}
	delete(r.settings, slug)
}

// Required returns the force-activated plugins in declaration order.
func (r *Registry) Required() []string {
	return slices.Clone(r.required)
}

// Recommended returns the soft-activated plugins in declaration order.
func (r *Registry) Recommended() []string {
	return slices.Clone(r.recommended)
}

// DeactivatedRequired returns the force-deactivated plugins.
func (r *Registry) DeactivatedRequired() []string {
	return slices.Clone(r.deactivatedRequired)
}

// DeactivatedRecommended returns the soft-deactivated plugins.
func (r *Registry) DeactivatedRecommended() []string {
	return slices.Clone(r.deactivatedRecommended)
}

// Deactivated returns both deactivation tiers, force-deactivated first.
func (r *Registry) Deactivated() []string {
	out := slices.Clone(r.deactivatedRequired)
	for _, slug := range r.deactivatedRecommended {
		out = appendUnique(out, slug)
	}
	return out
}

// CustomPath returns the custom-path plugins of one tier in declaration
// order.
func (r *Registry) CustomPath(priority int) []CustomPlugin {
	return slices.Clone(r.custom[priority])
}

// CustomPathAll returns a copy of every custom-path bucket keyed by tier.
func (r *Registry) CustomPathAll() map[int][]CustomPlugin {
	out := make(map[int][]CustomPlugin, len(r.custom))
	for priority, bucket := range r.custom {
		out[priority] = slices.Clone(bucket)
	}
	return out
}

// Priorities returns the tiers that hold at least one custom-path plugin, in
// ascending order.
func (r *Registry) Priorities() []int {
	out := make([]int, 0, len(r.custom))
	for priority := range r.custom {
		out = append(out, priority)
	}
	sort.Ints(out)
	return out
}

// Settings returns the settings a plugin was activated with.
func (r *Registry) Settings(slug string) (config.Settings, bool) {
	s, ok := r.settings[slug]
	return s, ok
}

// IsRequired reports whether slug is force-activated.
func (r *Registry) IsRequired(slug string) bool {
	return slices.Contains(r.required, slug)
}

// IsRecommended reports whether slug is soft-activated.
func (r *Registry) IsRecommended(slug string) bool {
	return slices.Contains(r.recommended, slug)
}

// IsForceDeactivated reports whether slug is force-deactivated.
func (r *Registry) IsForceDeactivated(slug string) bool {
	return slices.Contains(r.deactivatedRequired, slug)
}

// IsDeactivated reports whether slug is deactivated in either tier.
func (r *Registry) IsDeactivated(slug string) bool {
	return slices.Contains(r.deactivatedRequired, slug) || slices.Contains(r.deactivatedRecommended, slug)
}

// IsCustomPath reports whether slug is a custom-path plugin, and its tier.
func (r *Registry) IsCustomPath(slug string) (int, bool) {
	for priority, bucket := range r.custom {
		for _, p := range bucket {
			if p.Slug == slug {
				return priority, true
			}
		}
	}
	return 0, false
}

func appendUnique(list []string, slug string) []string {
	if slices.Contains(list, slug) {
		return list
	}
	return append(list, slug)
}
