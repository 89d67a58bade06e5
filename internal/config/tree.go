// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package config

import (
	"encoding/json"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Section names at the top level of a configuration document.
const (
	SectionActivate   = "activate"
	SectionDeactivate = "deactivate"
)

// Settings keys recognized on a plugin entry.
const (
	KeyForce    = "force"
	KeyPath     = "path"
	KeyPriority = "priority"
	KeyRequire  = "require"
)

// Settings is the per-plugin configuration attached to an entry.
type Settings struct {
	Force    bool
	Path     string
	Priority *int
	Require  Section
}

// PriorityOr returns the configured priority, or def when none is set.
func (s Settings) PriorityOr(def int) int {
	if s.Priority == nil {
		return def
	}
	return *s.Priority
}

// IsCustomPath reports whether the plugin is loaded from outside the
// standard plugins directories.
func (s Settings) IsCustomPath() bool {
	return s.Path != ""
}

// Entry pairs a plugin slug with its settings.
type Entry struct {
	Slug     string
	Settings Settings
}

// Section is an ordered plugin list. Slugs are unique within a section.
type Section []Entry

// Get returns the settings for slug.
func (s Section) Get(slug string) (Settings, bool) {
	for _, e := range s {
		if e.Slug == slug {
			return e.Settings, true
		}
	}
	return Settings{}, false
}

// Slugs returns the plugin slugs in declaration order.
func (s Section) Slugs() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Slug
	}
	return out
}

// Tree is the decoded configuration: what to activate and what to deactivate.
type Tree struct {
	Activate   Section
	Deactivate Section
}

// Empty reports whether the tree declares no plugins at all.
func (t Tree) Empty() bool {
	return len(t.Activate) == 0 && len(t.Deactivate) == 0
}

// Decode converts a merged raw document into a Tree. Unknown keys are
// ignored, non-object plugin entries get default settings, and a list found
// where a scalar is expected resolves to its last element.
func Decode(raw any) Tree {
	obj, ok := raw.(*Object)
	if !ok {
		return Tree{}
	}
	var t Tree
	if v, ok := obj.Get(SectionActivate); ok {
		t.Activate = decodeSection(v, true)
	}
	if v, ok := obj.Get(SectionDeactivate); ok {
		t.Deactivate = decodeSection(v, false)
	}
	return t
}

func decodeSection(raw any, withRequire bool) Section {
	obj, ok := raw.(*Object)
	if !ok {
		return nil
	}
	section := make(Section, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "" {
			continue
		}
		section = append(section, Entry{Slug: pair.Key, Settings: decodeSettings(pair.Value, withRequire)})
	}
	return section
}

func decodeSettings(raw any, withRequire bool) Settings {
	var s Settings
	obj, ok := raw.(*Object)
	if !ok {
		return s
	}
	if v, ok := obj.Get(KeyForce); ok {
		var force bool
		if mapstructure.WeakDecode(scalar(v), &force) == nil {
			s.Force = force
		}
	}
	if v, ok := obj.Get(KeyPath); ok {
		var path string
		if mapstructure.WeakDecode(scalar(v), &path) == nil {
			s.Path = path
		}
	}
	if v, ok := obj.Get(KeyPriority); ok {
		var priority int
		if v := scalar(v); v != nil && mapstructure.WeakDecode(v, &priority) == nil {
			s.Priority = &priority
		}
	}
	if v, ok := obj.Get(KeyRequire); ok && withRequire {
		// Dependencies do not carry dependencies of their own.
		s.Require = decodeSection(v, false)
	}
	return s
}

func scalar(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return scalar(list[len(list)-1])
	}
	return v
}

// Raw converts the tree back into its document form. Decode(t.Raw()) equals t.
func (t Tree) Raw() *Object {
	out := NewObject()
	if t.Activate != nil {
		out.Set(SectionActivate, t.Activate.Raw())
	}
	if t.Deactivate != nil {
		out.Set(SectionDeactivate, t.Deactivate.Raw())
	}
	return out
}

// Raw converts the section back into its document form.
func (s Section) Raw() *Object {
	out := NewObject()
	for _, e := range s {
		out.Set(e.Slug, e.Settings.Raw())
	}
	return out
}

// Raw converts the settings back into their document form, omitting
// zero-valued keys.
func (s Settings) Raw() *Object {
	out := NewObject()
	if s.Force {
		out.Set(KeyForce, true)
	}
	if s.Path != "" {
		out.Set(KeyPath, s.Path)
	}
	if s.Priority != nil {
		out.Set(KeyPriority, json.Number(strconv.Itoa(*s.Priority)))
	}
	if len(s.Require) > 0 {
		out.Set(KeyRequire, s.Require.Raw())
	}
	return out
}

// MarshalJSON renders the tree as a configuration document.
func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Raw())
}

// MarshalJSON renders the section as an ordered JSON object.
func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Raw())
}
