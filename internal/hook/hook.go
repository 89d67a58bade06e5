// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package hook provides typed extension points that let an embedder alter
// resolution behavior without modifying the engine.
//
// Each extension point is a chain of filters with a fixed signature. Filters
// run synchronously in registration order; each receives the previous
// filter's output. The zero value of a chain is ready to use and a nil chain
// returns its input unchanged.
package hook

// Point names an extension point.
type Point string

// Extension points exposed by the engine.
const (
	ConfigPaths      Point = "config_paths"
	ConfigFilename   Point = "config_filename"
	PluginConfigPath Point = "plugin_config_path"
	MergedConfigTree Point = "merged_config_tree"
	DefaultPriority  Point = "default_priority"
	DictatedList     Point = "dictated_list"
)

// Points returns every extension point in a stable order.
func Points() []Point {
	return []Point{
		ConfigPaths,
		ConfigFilename,
		PluginConfigPath,
		MergedConfigTree,
		DefaultPriority,
		DictatedList,
	}
}

// Chain is an ordered list of filters that take and return a T.
type Chain[T any] struct {
	filters []func(T) T
}

// Add appends a filter. Nil filters are ignored.
func (c *Chain[T]) Add(fn func(T) T) {
	if fn == nil {
		return
	}
	c.filters = append(c.filters, fn)
}

// Len reports the number of registered filters.
func (c *Chain[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.filters)
}

// Apply runs value through every filter in registration order.
func (c *Chain[T]) Apply(value T) T {
	if c == nil {
		return value
	}
	for _, fn := range c.filters {
		value = fn(value)
	}
	return value
}

// ArgChain is an ordered list of filters that transform a T given a
// read-only argument of type A.
type ArgChain[T, A any] struct {
	filters []func(T, A) T
}

// Add appends a filter. Nil filters are ignored.
func (c *ArgChain[T, A]) Add(fn func(T, A) T) {
	if fn == nil {
		return
	}
	c.filters = append(c.filters, fn)
}

// Len reports the number of registered filters.
func (c *ArgChain[T, A]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.filters)
}

// Apply runs value through every filter in registration order, passing arg
// to each.
func (c *ArgChain[T, A]) Apply(value T, arg A) T {
	if c == nil {
		return value
	}
	for _, fn := range c.filters {
		value = fn(value, arg)
	}
	return value
}
