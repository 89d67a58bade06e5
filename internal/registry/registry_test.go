// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugindictator/dictator/internal/config"
	"github.com/plugindictator/dictator/internal/registry"
)

func treeOf(t *testing.T, doc string) config.Tree {
	t.Helper()
	raw, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return config.Decode(raw)
}

func TestBuild_ClassifiesByForce(t *testing.T) {
	r := registry.Build(treeOf(t, `{
		"activate": {"a/a.php": {"force": true}, "b/b.php": {}, "c/c.php": {"force": true}},
		"deactivate": {"d/d.php": {"force": true}, "e/e.php": {}}
	}`))

	assert.Equal(t, []string{"a/a.php", "c/c.php"}, r.Required())
	assert.Equal(t, []string{"b/b.php"}, r.Recommended())
	assert.Equal(t, []string{"d/d.php"}, r.DeactivatedRequired())
	assert.Equal(t, []string{"e/e.php"}, r.DeactivatedRecommended())
	assert.Equal(t, []string{"d/d.php", "e/e.php"}, r.Deactivated())

	assert.True(t, r.IsRequired("a/a.php"))
	assert.True(t, r.IsRecommended("b/b.php"))
	assert.True(t, r.IsForceDeactivated("d/d.php"))
	assert.True(t, r.IsDeactivated("e/e.php"))
	assert.False(t, r.IsDeactivated("a/a.php"))
}

func TestBuild_DeactivationWins(t *testing.T) {
	tests := []struct {
		name              string
		doc               string
		wantRequired      []string
		wantRecommended   []string
		wantDeactRequired []string
		wantDeactRecomm   []string
	}{
		{
			name:              "both forced",
			doc:               `{"activate":{"x/x.php":{"force":true}},"deactivate":{"x/x.php":{"force":true}}}`,
			wantRequired:      []string{},
			wantRecommended:   nil,
			wantDeactRequired: []string{"x/x.php"},
		},
		{
			name:            "forced activate soft deactivate",
			doc:             `{"activate":{"x/x.php":{"force":true}},"deactivate":{"x/x.php":{}}}`,
			wantRequired:    []string{},
			wantDeactRecomm: []string{"x/x.php"},
		},
		{
			name:              "soft activate forced deactivate",
			doc:               `{"activate":{"x/x.php":{},"y/y.php":{}},"deactivate":{"x/x.php":{"force":true}}}`,
			wantRecommended:   []string{"y/y.php"},
			wantDeactRequired: []string{"x/x.php"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := registry.Build(treeOf(t, tt.doc))
			assert.ElementsMatch(t, tt.wantRequired, r.Required())
			assert.ElementsMatch(t, tt.wantRecommended, r.Recommended())
			assert.ElementsMatch(t, tt.wantDeactRequired, r.DeactivatedRequired())
			assert.ElementsMatch(t, tt.wantDeactRecomm, r.DeactivatedRecommended())
			assert.False(t, r.IsRequired("x/x.php"))
			assert.False(t, r.IsRecommended("x/x.php"))
		})
	}
}

func TestBuild_CustomPathPlugins(t *testing.T) {
	r := registry.Build(treeOf(t, `{"activate": {
		"early": {"path": "vendor", "priority": 0},
		"normal": {"path": "vendor", "force": true},
		"late": {"path": "lib", "priority": 2}
	}}`), registry.WithPathFunc(func(slug, base string) string {
		return "/srv/www/" + base + "/" + slug
	}))

	assert.Empty(t, r.Required())
	assert.Empty(t, r.Recommended())
	assert.Empty(t, r.Deactivated())

	assert.Equal(t, []registry.CustomPlugin{{Slug: "early", Path: "/srv/www/vendor/early", Priority: 0}}, r.CustomPath(0))
	assert.Equal(t, []registry.CustomPlugin{{Slug: "normal", Path: "/srv/www/vendor/normal", Priority: 1}}, r.CustomPath(1))
	assert.Equal(t, []registry.CustomPlugin{{Slug: "late", Path: "/srv/www/lib/late", Priority: 2}}, r.CustomPath(2))
	assert.Equal(t, []int{0, 1, 2}, r.Priorities())

	tier, ok := r.IsCustomPath("late")
	assert.True(t, ok)
	assert.Equal(t, 2, tier)
	_, ok = r.IsCustomPath("missing")
	assert.False(t, ok)
}

func TestBuild_CustomPathDefaultPriority(t *testing.T) {
	doc := `{"activate": {"plain": {"path": "vendor"}}}`

	assert.Len(t, registry.Build(treeOf(t, doc)).CustomPath(1), 1)

	r := registry.Build(treeOf(t, doc), registry.WithDefaultPriority(2))
	assert.Empty(t, r.CustomPath(1))
	assert.Len(t, r.CustomPath(2), 1)
}

func TestBuild_CustomPathRemovalNeedsMatchingPriority(t *testing.T) {
	r := registry.Build(treeOf(t, `{
		"activate": {"a": {"path": "vendor", "priority": 0}, "b": {"path": "vendor", "priority": 2}},
		"deactivate": {"a": {"path": "vendor", "priority": 0}, "b": {"path": "vendor"}}
	}`))

	assert.Empty(t, r.CustomPath(0))
	assert.Len(t, r.CustomPath(2), 1)
	assert.Equal(t, []int{2}, r.Priorities())
	assert.Empty(t, r.Deactivated(), "custom path deactivations never reach the deactivated lists")

	_, ok := r.Settings("a")
	assert.False(t, ok)
}

func TestBuild_OutOfRangePriorityKept(t *testing.T) {
	r := registry.Build(treeOf(t, `{"activate": {"odd": {"path": "vendor", "priority": 7}}}`))
	assert.Len(t, r.CustomPath(7), 1)
}

func TestBuild_Settings(t *testing.T) {
	r := registry.Build(treeOf(t, `{"activate": {"a/a.php": {"force": true, "require": {"dep/dep.php": {}}}}}`))

	s, ok := r.Settings("a/a.php")
	require.True(t, ok)
	assert.Equal(t, []string{"dep/dep.php"}, s.Require.Slugs())
}

func TestRegistry_AccessorsReturnCopies(t *testing.T) {
	r := registry.Build(treeOf(t, `{
		"activate": {"a/a.php": {"force": true}, "b/b.php": {}, "c": {"path": "vendor"}},
		"deactivate": {"d/d.php": {}}
	}`))

	r.Required()[0] = "mutated"
	r.Recommended()[0] = "mutated"
	r.DeactivatedRecommended()[0] = "mutated"
	r.CustomPath(1)[0].Slug = "mutated"
	r.CustomPathAll()[1][0].Slug = "mutated"
	delete(r.CustomPathAll(), 1)

	assert.Equal(t, []string{"a/a.php"}, r.Required())
	assert.Equal(t, []string{"b/b.php"}, r.Recommended())
	assert.Equal(t, []string{"d/d.php"}, r.DeactivatedRecommended())
	assert.Equal(t, "c", r.CustomPath(1)[0].Slug)
	assert.Len(t, r.CustomPathAll(), 1)
}

func TestBuild_EmptyTree(t *testing.T) {
	r := registry.Build(config.Tree{})
	assert.Empty(t, r.Required())
	assert.Empty(t, r.Priorities())
}
