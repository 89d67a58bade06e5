// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package activity fans plugin state changes out to interested hooks.
package activity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Verbs describing a plugin state change.
const (
	VerbActivated   = "activated"
	VerbDeactivated = "deactivated"
)

// Event describes a single plugin state change made by a reset.
type Event struct {
	Verb       string
	Plugin     string
	RunID      string
	ActorID    string
	OccurredAt time.Time
}

// Hook receives plugin state change events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks in order, returning a joined error
// if any fail. Events without a verb or plugin are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.Plugin == "" {
		return nil
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace and ensures a timestamp is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Plugin = strings.TrimSpace(event.Plugin)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

// LogHook returns a hook that logs every event at info level.
func LogHook(logger *slog.Logger) Hook {
	return HookFunc(func(ctx context.Context, event Event) error {
		logger.InfoContext(ctx, "plugin "+event.Verb,
			"plugin", event.Plugin,
			"run_id", event.RunID,
			"actor", event.ActorID,
		)
		return nil
	})
}

// CaptureHook records events for assertions in tests.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns any configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Plugins returns the plugins of the recorded events with the given verb.
func (h *CaptureHook) Plugins(verb string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, e := range h.Events {
		if e.Verb == verb {
			out = append(out, e.Plugin)
		}
	}
	return out
}
