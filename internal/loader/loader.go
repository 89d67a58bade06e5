// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package loader includes custom-path plugins at the host's three startup
// checkpoints.
package loader

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/samber/oops"

	"github.com/plugindictator/dictator/internal/registry"
)

// Tier identifies a startup checkpoint. Tiers fire in ascending order.
type Tier int

// Checkpoint tiers.
const (
	TierMustUse Tier = iota
	TierPlugins
	TierTheme
)

// Tiers returns every tier in firing order.
func Tiers() []Tier {
	return []Tier{TierMustUse, TierPlugins, TierTheme}
}

func (t Tier) String() string {
	switch t {
	case TierMustUse:
		return "muplugins_loaded"
	case TierPlugins:
		return "plugins_loaded"
	case TierTheme:
		return "after_setup_theme"
	default:
		return "tier_" + strconv.Itoa(int(t))
	}
}

// ParseTier parses a tier number or checkpoint name.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers() {
		if s == t.String() || s == strconv.Itoa(int(t)) {
			return t, nil
		}
	}
	return 0, oops.Code("INVALID_TIER").With("tier", s).Errorf("unknown checkpoint %q", s)
}

// Includer executes a plugin file in the running process.
type Includer interface {
	Include(ctx context.Context, plugin registry.CustomPlugin) error
}

// IncluderFunc allows plain functions to satisfy Includer.
type IncluderFunc func(ctx context.Context, plugin registry.CustomPlugin) error

// Include calls fn.
func (fn IncluderFunc) Include(ctx context.Context, plugin registry.CustomPlugin) error {
	return fn(ctx, plugin)
}

// PathChecker vets plugin paths before inclusion.
type PathChecker interface {
	Safe(path string) bool
	Exists(path string) bool
}

// Outcome classifies what happened to a plugin at a checkpoint.
type Outcome string

// Inclusion outcomes.
const (
	OutcomeIncluded Outcome = "included"
	OutcomeMissing  Outcome = "missing"
	OutcomeUnsafe   Outcome = "unsafe"
	OutcomeFailed   Outcome = "failed"
)

// Inclusion records one plugin handled at a checkpoint.
type Inclusion struct {
	Plugin  registry.CustomPlugin
	Tier    Tier
	Outcome Outcome
	Err     error
}

// Loader drains the registry's custom-path buckets.
type Loader struct {
	registry *registry.Registry
	paths    PathChecker
	includer Includer
	logger   *slog.Logger
	observe  func(Inclusion)

	drained    map[Tier]bool
	inclusions []Inclusion
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithObserver registers a callback invoked for every plugin handled.
func WithObserver(fn func(Inclusion)) Option {
	return func(l *Loader) { l.observe = fn }
}

// New creates a loader. A nil includer or path checker is a bootstrap
// failure.
func New(reg *registry.Registry, paths PathChecker, includer Includer, opts ...Option) (*Loader, error) {
	if includer == nil {
		return nil, oops.Code("BOOTSTRAP_MISSING_INCLUDER").Errorf("no plugin includer configured")
	}
	if paths == nil {
		return nil, oops.Code("BOOTSTRAP_MISSING_PATHS").Errorf("no path checker configured")
	}
	l := &Loader{
		registry: reg,
		paths:    paths,
		includer: includer,
		logger:   slog.Default(),
		drained:  make(map[Tier]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Init catches up with checkpoints that fired before the loader existed.
// passed reports whether a checkpoint has already fired. If only the
// must-use checkpoint has passed, its tier is drained immediately. If the
// plugins checkpoint has passed too, custom-path plugins can no longer be
// loaded in order and Init fails.
func (l *Loader) Init(ctx context.Context, passed func(Tier) bool) error {
	if passed == nil {
		return nil
	}
	if passed(TierPlugins) {
		return oops.Code("BOOTSTRAP_TOO_LATE").
			With("checkpoint", TierPlugins.String()).
			Errorf("initialized after %s fired", TierPlugins)
	}
	if passed(TierMustUse) {
		l.logger.DebugContext(ctx, "checkpoint already fired, draining now", "checkpoint", TierMustUse.String())
		l.Checkpoint(ctx, TierMustUse)
	}
	return nil
}

// Checkpoint includes every custom-path plugin of tier in declaration order
// and returns the slugs that were included. Missing or unsafe files are
// skipped, and include failures are logged without stopping the rest. Each
// tier is drained at most once.
func (l *Loader) Checkpoint(ctx context.Context, tier Tier) []string {
	if l.drained[tier] {
		return nil
	}
	l.drained[tier] = true

	var included []string
	for _, p := range l.registry.CustomPath(int(tier)) {
		in := Inclusion{Plugin: p, Tier: tier}
		switch {
		case !l.paths.Safe(p.Path):
			in.Outcome = OutcomeUnsafe
		case !l.paths.Exists(p.Path):
			in.Outcome = OutcomeMissing
		default:
			if err := l.includer.Include(ctx, p); err != nil {
				in.Outcome, in.Err = OutcomeFailed, err
				l.logger.ErrorContext(ctx, "custom path plugin failed to load",
					"plugin", p.Slug, "path", p.Path, "checkpoint", tier.String(), "error", err)
			} else {
				in.Outcome = OutcomeIncluded
				included = append(included, p.Slug)
			}
		}
		l.inclusions = append(l.inclusions, in)
		if l.observe != nil {
			l.observe(in)
		}
	}
	return included
}

// Drained reports whether tier has been drained.
func (l *Loader) Drained(tier Tier) bool {
	return l.drained[tier]
}

// Inclusions returns every plugin handled so far in order.
func (l *Loader) Inclusions() []Inclusion {
	out := make([]Inclusion, len(l.inclusions))
	copy(out, l.inclusions)
	return out
}
