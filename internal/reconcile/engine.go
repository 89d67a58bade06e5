// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package reconcile applies the classified configuration to the host's list
// of active plugins.
//
// Dictation is a read-time override: the host's stored list is filtered on
// every read, and the result is computed once and memoized. Reset is a
// persistent correction: the stored list itself is rewritten to match the
// recommendations, notifying hooks of every change.
package reconcile

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/plugindictator/dictator/internal/activity"
	"github.com/plugindictator/dictator/internal/hook"
	"github.com/plugindictator/dictator/internal/registry"
	"github.com/plugindictator/dictator/internal/store"
)

// Engine reconciles a registry against the host's active plugin list.
type Engine struct {
	registry  *registry.Registry
	listHook  *hook.Chain[[]string]
	exists    func(slug string) bool
	store     store.Store
	optionKey string
	notifier  activity.Hooks
	logger    *slog.Logger
	now       func() time.Time

	computed bool
	raw      []string
	dictated []string
	errs     map[string]error
}

// Option configures an Engine.
type Option func(*Engine)

// WithListHook sets the filter applied to every freshly dictated list.
func WithListHook(c *hook.Chain[[]string]) Option {
	return func(e *Engine) { e.listHook = c }
}

// WithExists sets the check used to decide whether a dependency that is not
// active can be activated. It receives the dependency's slug.
func WithExists(fn func(slug string) bool) Option {
	return func(e *Engine) { e.exists = fn }
}

// WithStore sets the option store used by Reset.
func WithStore(s store.Store, key string) Option {
	return func(e *Engine) {
		e.store = s
		e.optionKey = key
	}
}

// WithNotifier sets the hooks told about every plugin a reset changes.
func WithNotifier(h activity.Hooks) Option {
	return func(e *Engine) { e.notifier = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock sets the time source for reset events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine for a fully built registry.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		exists:   func(string) bool { return false },
		logger:   slog.Default(),
		now:      time.Now,
		errs:     make(map[string]error),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dictate returns the corrected active plugin list. The first call computes
//
//	unique(active + required) - deactivated
//
// keeping the order of active and appending each required plugin after the
// dependencies it declares. A required plugin whose dependency is neither
// active nor installed is not forced; the failure is available from Errors.
// Later calls return the first result whatever their argument, until Forget.
func (e *Engine) Dictate(active []string) []string {
	if e.computed {
		return slices.Clone(e.dictated)
	}

	e.raw = slices.Clone(active)
	e.errs = make(map[string]error)

	result := unique(active)
	for _, slug := range e.registry.Required() {
		deps, err := e.dependencies(slug, result)
		if err != nil {
			e.errs[slug] = err
			continue
		}
		for _, dep := range deps {
			result = appendMissing(result, dep)
		}
		result = appendMissing(result, slug)
	}

	deactivated := e.registry.Deactivated()
	result = slices.DeleteFunc(result, func(slug string) bool {
		return slices.Contains(deactivated, slug)
	})

	e.dictated = e.listHook.Apply(result)
	e.computed = true
	return slices.Clone(e.dictated)
}

// dependencies returns the dependencies of slug that must be added to
// active, in declaration order.
func (e *Engine) dependencies(slug string, active []string) ([]string, error) {
	settings, _ := e.registry.Settings(slug)
	var deps []string
	for _, dep := range settings.Require {
		if slices.Contains(active, dep.Slug) {
			continue
		}
		if !e.exists(dep.Slug) {
			return nil, oops.Code("DEPENDENCY_UNRESOLVED").
				With("plugin", slug).
				With("dependency", dep.Slug).
				Errorf("could not find plugin file %s to load as a dependency for %s", dep.Slug, slug)
		}
		deps = append(deps, dep.Slug)
	}
	return deps, nil
}

// Computed reports whether Dictate has a memoized result.
func (e *Engine) Computed() bool {
	return e.computed
}

// Forget drops the memoized result so the next Dictate recomputes.
func (e *Engine) Forget() {
	e.computed = false
	e.dictated = nil
	e.raw = nil
	e.errs = make(map[string]error)
}

// Raw returns the list Dictate was first called with.
func (e *Engine) Raw() []string {
	return slices.Clone(e.raw)
}

// Errors returns the dependency failures of the last computation keyed by
// the dependent plugin.
func (e *Engine) Errors() map[string]error {
	out := make(map[string]error, len(e.errs))
	for k, v := range e.errs {
		out[k] = v
	}
	return out
}

// Mismatch lists the differences between an active list and the
// recommendations. It is empty exactly when a reset from that list would
// change nothing.
type Mismatch struct {
	// ShouldBeActive holds recommended plugins that are not active.
	ShouldBeActive []string
	// ShouldNotBeActive holds active plugins that are neither recommended
	// nor required.
	ShouldNotBeActive []string
}

// Empty reports whether active already matches the configuration.
func (m Mismatch) Empty() bool {
	return len(m.ShouldBeActive) == 0 && len(m.ShouldNotBeActive) == 0
}

// Mismatch compares active against the registry without touching the memo.
func (e *Engine) Mismatch(active []string) Mismatch {
	recommended := e.registry.Recommended()
	keep := slices.Concat(recommended, e.registry.Required())

	var m Mismatch
	for _, slug := range recommended {
		if !slices.Contains(active, slug) {
			m.ShouldBeActive = append(m.ShouldBeActive, slug)
		}
	}
	for _, slug := range unique(active) {
		if !slices.Contains(keep, slug) {
			m.ShouldNotBeActive = append(m.ShouldNotBeActive, slug)
		}
	}
	return m
}

// Result describes a completed reset.
type Result struct {
	RunID       string
	Activated   []string
	Deactivated []string
	Plugins     []string
}

// Changed reports whether the reset rewrote the stored list.
func (r Result) Changed() bool {
	return len(r.Activated) > 0 || len(r.Deactivated) > 0
}

// Reset rewrites the stored active plugin list so that every recommended
// plugin is active and nothing outside the recommended and required sets
// is. Each change is reported to the notifier, the memo is dropped and, if
// the store keeps history, the run is recorded. Running Reset twice without
// a configuration change makes no second change.
func (e *Engine) Reset(ctx context.Context, actor string) (Result, error) {
	if e.store == nil {
		return Result{}, oops.Code("RESET_NO_STORE").Errorf("no option store configured")
	}

	stored, _, err := e.store.Load(ctx, e.optionKey)
	if err != nil {
		return Result{}, oops.Code("RESET_LOAD_FAILED").With("key", e.optionKey).Wrap(err)
	}
	stored = unique(stored)

	diff := e.Mismatch(stored)
	res := Result{
		RunID:       ulid.Make().String(),
		Activated:   diff.ShouldBeActive,
		Deactivated: diff.ShouldNotBeActive,
	}

	res.Plugins = slices.DeleteFunc(slices.Clone(stored), func(slug string) bool {
		return slices.Contains(res.Deactivated, slug)
	})
	res.Plugins = append(res.Plugins, res.Activated...)

	if !res.Changed() {
		e.logger.InfoContext(ctx, "reset found nothing to change", "run_id", res.RunID)
		return res, nil
	}

	if err := e.store.Save(ctx, e.optionKey, res.Plugins); err != nil {
		return Result{}, oops.Code("RESET_SAVE_FAILED").With("key", e.optionKey).Wrap(err)
	}
	e.Forget()

	now := e.now()
	e.notify(ctx, activity.VerbActivated, res.Activated, res.RunID, actor, now)
	e.notify(ctx, activity.VerbDeactivated, res.Deactivated, res.RunID, actor, now)

	if rec, ok := e.store.(store.RunRecorder); ok {
		run := store.Run{
			ID:          res.RunID,
			Option:      e.optionKey,
			Actor:       actor,
			Activated:   nonNil(res.Activated),
			Deactivated: nonNil(res.Deactivated),
			CreatedAt:   now.UTC(),
		}
		if err := rec.RecordRun(ctx, run); err != nil {
			e.logger.WarnContext(ctx, "failed to record reset run", "run_id", res.RunID, "error", err)
		}
	}

	e.logger.InfoContext(ctx, "reset plugins",
		"run_id", res.RunID,
		"activated", len(res.Activated),
		"deactivated", len(res.Deactivated),
	)
	return res, nil
}

func (e *Engine) notify(ctx context.Context, verb string, plugins []string, runID, actor string, at time.Time) {
	for _, slug := range plugins {
		err := e.notifier.Notify(ctx, activity.Event{
			Verb:       verb,
			Plugin:     slug,
			RunID:      runID,
			ActorID:    actor,
			OccurredAt: at,
		})
		if err != nil {
			e.logger.WarnContext(ctx, "reset hook failed",
				"run_id", runID, "plugin", slug, "verb", verb, "error", err)
		}
	}
}

func unique(list []string) []string {
	out := make([]string, 0, len(list))
	for _, slug := range list {
		out = appendMissing(out, slug)
	}
	return out
}

func appendMissing(list []string, slug string) []string {
	if slices.Contains(list, slug) {
		return list
	}
	return append(list, slug)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
