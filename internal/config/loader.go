// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package config

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/plugindictator/dictator/internal/hook"
	"github.com/plugindictator/dictator/internal/paths"
)

// Outcome classifies what happened to a candidate configuration file.
type Outcome string

// Load outcomes.
const (
	OutcomeLoaded  Outcome = "loaded"
	OutcomeEmpty   Outcome = "empty"
	OutcomeMissing Outcome = "missing"
	OutcomeUnsafe  Outcome = "unsafe"
	OutcomeInvalid Outcome = "invalid"
)

// PluginLabelPrefix prefixes the label of per-plugin configuration sources.
const PluginLabelPrefix = "plugin:"

// Source records one candidate file considered during a load.
type Source struct {
	Label   string
	Path    string
	Outcome Outcome
	Err     error
}

// Loader discovers, parses and merges configuration documents into a Tree.
type Loader struct {
	resolver *paths.Resolver
	treeHook *hook.Chain[Tree]
	strict   bool
	logger   *slog.Logger
	observe  func(Source)
	sources  []Source
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTreeHook sets the filter applied to the tree merged from the general
// locations, before per-plugin files are consulted.
func WithTreeHook(c *hook.Chain[Tree]) LoaderOption {
	return func(l *Loader) { l.treeHook = c }
}

// WithStrictSchema rejects documents that fail schema validation.
func WithStrictSchema(strict bool) LoaderOption {
	return func(l *Loader) { l.strict = strict }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithObserver registers a callback invoked for every candidate file.
func WithObserver(fn func(Source)) LoaderOption {
	return func(l *Loader) { l.observe = fn }
}

// NewLoader creates a loader that reads the locations of resolver.
func NewLoader(resolver *paths.Resolver, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver: resolver,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the configuration tree. General locations are merged in
// order, the result passes through the tree hook, then the per-plugin file
// of every plugin in the filtered activate section is merged on top.
// Missing, unsafe and unparsable files are skipped; Load never fails.
func (l *Loader) Load(ctx context.Context) Tree {
	l.sources = nil

	var merged any = NewObject()
	for _, loc := range l.resolver.ConfigPaths() {
		if doc, ok := l.read(ctx, loc.Label, loc.Path); ok {
			merged = Merge(merged, doc)
		}
	}

	tree := l.treeHook.Apply(Decode(merged))

	merged = tree.Raw()
	for _, e := range tree.Activate {
		path := l.resolver.ConfigForPlugin(e.Slug, e.Settings.Path)
		if doc, ok := l.read(ctx, PluginLabelPrefix+e.Slug, path); ok {
			merged = Merge(merged, doc)
		}
	}

	return Decode(merged)
}

// Sources returns the candidate files considered by the last Load.
func (l *Loader) Sources() []Source {
	out := make([]Source, len(l.sources))
	copy(out, l.sources)
	return out
}

func (l *Loader) read(ctx context.Context, label, path string) (*Object, bool) {
	src := Source{Label: label, Path: path}
	doc := l.parse(&src)
	l.sources = append(l.sources, src)
	if l.observe != nil {
		l.observe(src)
	}

	switch src.Outcome {
	case OutcomeLoaded:
		l.logger.DebugContext(ctx, "config loaded", "label", label, "path", path)
	case OutcomeUnsafe, OutcomeInvalid:
		l.logger.WarnContext(ctx, "config skipped",
			"label", label, "path", path, "outcome", string(src.Outcome), "error", src.Err)
	}
	return doc, src.Outcome == OutcomeLoaded
}

func (l *Loader) parse(src *Source) *Object {
	if src.Path == "" {
		src.Outcome = OutcomeMissing
		return nil
	}
	if !l.resolver.Safe(src.Path) {
		src.Outcome = OutcomeUnsafe
		return nil
	}

	data, err := os.ReadFile(src.Path)
	if errors.Is(err, fs.ErrNotExist) {
		src.Outcome = OutcomeMissing
		return nil
	}
	if err != nil {
		src.Outcome, src.Err = OutcomeInvalid, err
		return nil
	}

	if l.strict {
		if err := ValidateSchema(data); err != nil {
			src.Outcome, src.Err = OutcomeInvalid, err
			return nil
		}
	}

	v, err := Parse(data)
	if err != nil {
		src.Outcome, src.Err = OutcomeInvalid, err
		return nil
	}
	obj, ok := v.(*Object)
	if !ok {
		src.Outcome, src.Err = OutcomeInvalid, errors.New("document is not a JSON object")
		return nil
	}
	if obj.Len() == 0 {
		src.Outcome = OutcomeEmpty
		return nil
	}
	src.Outcome = OutcomeLoaded
	return obj
}
