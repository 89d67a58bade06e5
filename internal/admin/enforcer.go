// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package admin guards administrative plugin operations: which principals
// may run them, which plugins they may touch and replay protection for the
// reset action.
//
// Capability grants use gobwas/glob with '.' as the segment separator:
//   - '*' matches a single segment (does not cross '.')
//   - '**' matches zero or more segments (crosses '.')
package admin

import (
	"slices"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the admin actions.
const (
	CapabilityActivatePlugins = "plugins.activate"
	CapabilityManagePlugins   = "plugins.manage"
)

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer maps principals to granted capability patterns. It is safe for
// concurrent use and the zero value is ready to use.
type Enforcer struct {
	grants map[string][]compiledGrant
	mu     sync.RWMutex
}

// NewEnforcer creates an enforcer from a principal to patterns map.
func NewEnforcer(grants map[string][]string) (*Enforcer, error) {
	e := &Enforcer{}
	for principal, patterns := range grants {
		if err := e.SetGrants(principal, patterns); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetGrants replaces the capabilities of principal. Either every pattern
// compiles and the grants are replaced, or nothing changes.
func (e *Enforcer) SetGrants(principal string, patterns []string) error {
	if principal == "" {
		return oops.Code("INVALID_GRANT").Errorf("principal cannot be empty")
	}

	compiled := make([]compiledGrant, len(patterns))
	for i, pattern := range patterns {
		if pattern == "" {
			return oops.Code("INVALID_GRANT").With("principal", principal).Errorf("grant %d: empty pattern", i)
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return oops.Code("INVALID_GRANT").With("principal", principal).With("pattern", pattern).Wrap(err)
		}
		compiled[i] = compiledGrant{pattern: pattern, glob: g}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[principal] = compiled
	return nil
}

// Grants returns the patterns granted to principal, or nil.
func (e *Enforcer) Grants(principal string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	grants, ok := e.grants[principal]
	if !ok {
		return nil
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Principals returns every principal with grants, sorted.
func (e *Enforcer) Principals() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.grants))
	for p := range e.grants {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Check reports whether principal holds capability. Unknown principals and
// empty capabilities are denied.
func (e *Enforcer) Check(principal, capability string) bool {
	if capability == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, grant := range e.grants[principal] {
		if grant.glob.Match(capability) {
			return true
		}
	}
	return false
}
