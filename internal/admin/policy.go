// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package admin

import (
	"slices"

	"github.com/plugindictator/dictator/internal/registry"
)

// Action is a per-plugin administrative operation.
type Action string

// Plugin actions.
const (
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionDelete     Action = "delete"
)

// Actions returns every plugin action.
func Actions() []Action {
	return []Action{ActionActivate, ActionDeactivate, ActionDelete}
}

// Policy decides which actions the configuration forbids on a plugin,
// whoever asks. Required plugins cannot be deactivated or deleted, and
// force-deactivated plugins cannot be activated.
type Policy struct {
	registry *registry.Registry
}

// NewPolicy creates a policy for reg.
func NewPolicy(reg *registry.Registry) *Policy {
	return &Policy{registry: reg}
}

// Allowed reports whether action may be performed on slug.
func (p *Policy) Allowed(action Action, slug string) bool {
	switch action {
	case ActionActivate:
		return !p.registry.IsForceDeactivated(slug)
	case ActionDeactivate, ActionDelete:
		return !p.registry.IsRequired(slug)
	default:
		return true
	}
}

// AllowedBulkDelete reports whether every plugin in slugs may be deleted.
func (p *Policy) AllowedBulkDelete(slugs []string) bool {
	return !slices.ContainsFunc(slugs, p.registry.IsRequired)
}

// Permitted filters actions down to those allowed on slug.
func (p *Policy) Permitted(slug string, actions []Action) []Action {
	var out []Action
	for _, a := range actions {
		if p.Allowed(a, slug) {
			out = append(out, a)
		}
	}
	return out
}
