// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package dictator

import (
	"context"
	"slices"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Row fields, in display order.
const (
	FieldSlug       = "slug"
	FieldActivate   = "activate"
	FieldDeactivate = "deactivate"
	FieldForce      = "force"
	FieldPath       = "path"
	FieldStatus     = "status"
)

// Plugin statuses.
const (
	StatusActive    = "active"
	StatusNotActive = "not active"
)

// Fields returns every row field in display order.
func Fields() []string {
	return []string{FieldSlug, FieldActivate, FieldDeactivate, FieldForce, FieldPath, FieldStatus}
}

// Row is one configured plugin as shown by inspection commands.
type Row struct {
	Slug       string `json:"slug"       yaml:"slug"`
	Activate   string `json:"activate"   yaml:"activate"`
	Deactivate string `json:"deactivate" yaml:"deactivate"`
	Force      string `json:"force"      yaml:"force"`
	Path       string `json:"path"       yaml:"path"`
	Status     string `json:"status"     yaml:"status"`
}

// Field returns the value of the named field and whether the name is known.
func (r Row) Field(name string) (string, bool) {
	switch name {
	case FieldSlug:
		return r.Slug, true
	case FieldActivate:
		return r.Activate, true
	case FieldDeactivate:
		return r.Deactivate, true
	case FieldForce:
		return r.Force, true
	case FieldPath:
		return r.Path, true
	case FieldStatus:
		return r.Status, true
	default:
		return "", false
	}
}

// Rows lists every configured plugin. A plugin named in both sections keeps
// the position of its activate entry and the values of its deactivate one.
// Custom-path plugins are always active; others are active if the dictated
// active list contains them.
func (s *Session) Rows(ctx context.Context) ([]Row, error) {
	var active []string
	if s.store != nil {
		var err error
		if active, err = s.Active(ctx); err != nil {
			return nil, err
		}
	}

	var rows []Row
	index := make(map[string]int)
	put := func(r Row) {
		if i, ok := index[r.Slug]; ok {
			rows[i] = r
			return
		}
		index[r.Slug] = len(rows)
		rows = append(rows, r)
	}

	for _, e := range s.tree.Activate {
		put(newRow(e.Slug, e.Settings.Force, e.Settings.Path, "yes", "", active))
	}
	for _, e := range s.tree.Deactivate {
		put(newRow(e.Slug, e.Settings.Force, e.Settings.Path, "", "yes", active))
	}
	return rows, nil
}

func newRow(slug string, force bool, path, activate, deactivate string, active []string) Row {
	r := Row{
		Slug:       slug,
		Activate:   activate,
		Deactivate: deactivate,
		Force:      "no",
		Path:       path,
		Status:     StatusNotActive,
	}
	if force {
		r.Force = "yes"
	}
	if path != "" || slices.Contains(active, slug) {
		r.Status = StatusActive
	}
	return r
}

// FilterRows keeps rows whose slug matches any of patterns (all rows when
// patterns is empty) and whose fields equal every value in filters.
func FilterRows(rows []Row, patterns []string, filters map[string]string) ([]Row, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, oops.Code("INVALID_FILTER").With("pattern", p).Wrap(err)
		}
		globs = append(globs, g)
	}
	for name := range filters {
		if _, ok := (Row{}).Field(name); !ok {
			return nil, oops.Code("INVALID_FILTER").With("field", name).Errorf("unknown field %q", name)
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if len(globs) > 0 && !slices.ContainsFunc(globs, func(g glob.Glob) bool { return g.Match(r.Slug) }) {
			continue
		}
		if !matchesAll(r, filters) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func matchesAll(r Row, filters map[string]string) bool {
	for name, want := range filters {
		if got, _ := r.Field(name); got != want {
			return false
		}
	}
	return true
}
