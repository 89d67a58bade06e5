// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package dictator wires the resolution pipeline into a single per-process
// session: locate config files, merge them, classify plugins, correct the
// active list and load custom-path plugins at their checkpoints.
package dictator

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/plugindictator/dictator/internal/activity"
	"github.com/plugindictator/dictator/internal/config"
	"github.com/plugindictator/dictator/internal/env"
	"github.com/plugindictator/dictator/internal/hook"
	"github.com/plugindictator/dictator/internal/loader"
	"github.com/plugindictator/dictator/internal/observability"
	"github.com/plugindictator/dictator/internal/paths"
	"github.com/plugindictator/dictator/internal/reconcile"
	"github.com/plugindictator/dictator/internal/registry"
	"github.com/plugindictator/dictator/internal/store"
)

var tracer = otel.Tracer("dictator/session")

// Hooks groups every extension point. Nil chains are identity filters.
type Hooks struct {
	ConfigPaths      *hook.Chain[[]paths.Location]
	ConfigFilename   *hook.ArgChain[string, string]
	PluginConfigPath *hook.ArgChain[string, string]
	MergedConfigTree *hook.Chain[config.Tree]
	DefaultPriority  *hook.Chain[int]
	DictatedList     *hook.Chain[[]string]
}

// Session is the resolution state of one process. It is built once at
// startup and is not safe for concurrent use.
type Session struct {
	hooks           Hooks
	includer        loader.Includer
	store           store.Store
	optionKey       string
	notifier        activity.Hooks
	logger          *slog.Logger
	metrics         *observability.Metrics
	defaultPriority int
	strict          bool
	probe           func(loader.Tier) bool
	now             func() time.Time

	resolver *paths.Resolver
	sources  []config.Source
	tree     config.Tree
	registry *registry.Registry
	engine   *reconcile.Engine
	boot     *loader.Loader
}

// Option configures a Session.
type Option func(*Session)

// WithHooks sets the extension point chains.
func WithHooks(h Hooks) Option {
	return func(s *Session) { s.hooks = h }
}

// WithIncluder enables custom-path loading through includer.
func WithIncluder(includer loader.Includer) Option {
	return func(s *Session) { s.includer = includer }
}

// WithStore sets the host option store used for status and reset.
func WithStore(st store.Store) Option {
	return func(s *Session) { s.store = st }
}

// WithOptionKey overrides env.DefaultOptionKey.
func WithOptionKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.optionKey = key
		}
	}
}

// WithNotifier sets the hooks told about reset changes.
func WithNotifier(h activity.Hooks) Option {
	return func(s *Session) { s.notifier = h }
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics records pipeline activity on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithDefaultPriority sets the priority of custom-path plugins that do not
// declare one, before the DefaultPriority hook runs.
func WithDefaultPriority(priority int) Option {
	return func(s *Session) { s.defaultPriority = priority }
}

// WithStrictSchema rejects config files that fail schema validation.
func WithStrictSchema(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithCheckpointProbe tells the session which checkpoints already fired
// before it was created.
func WithCheckpointProbe(passed func(loader.Tier) bool) Option {
	return func(s *Session) { s.probe = passed }
}

// WithClock sets the time source for resets.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New resolves and classifies the configuration for layout. If an includer
// is configured, custom-path loading is initialized, which fails with
// BOOTSTRAP_TOO_LATE when the plugins checkpoint has already fired.
func New(ctx context.Context, layout env.Layout, opts ...Option) (s *Session, err error) {
	s = &Session{
		optionKey:       env.DefaultOptionKey,
		logger:          slog.Default(),
		defaultPriority: env.DefaultPriority,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, span := tracer.Start(ctx, "dictator.bootstrap",
		trace.WithAttributes(attribute.String("layout.root", layout.Root)))
	defer func() { endSpan(span, err) }()

	s.resolver = paths.NewResolver(layout, paths.Hooks{
		Locations:    s.hooks.ConfigPaths,
		Filename:     s.hooks.ConfigFilename,
		PluginConfig: s.hooks.PluginConfigPath,
	})

	cl := config.NewLoader(s.resolver,
		config.WithTreeHook(s.hooks.MergedConfigTree),
		config.WithStrictSchema(s.strict),
		config.WithLogger(s.logger),
		config.WithObserver(func(src config.Source) {
			s.metrics.RecordSource(string(src.Outcome))
		}),
	)
	s.tree = cl.Load(ctx)
	s.sources = cl.Sources()

	s.registry = registry.Build(s.tree,
		registry.WithDefaultPriority(s.hooks.DefaultPriority.Apply(s.defaultPriority)),
		registry.WithPathFunc(s.resolver.CustomPluginFile),
		registry.WithLogger(s.logger),
	)
	s.recordClasses()

	engineOpts := []reconcile.Option{
		reconcile.WithListHook(s.hooks.DictatedList),
		reconcile.WithExists(func(slug string) bool {
			return s.resolver.Exists(s.resolver.PluginFile(slug))
		}),
		reconcile.WithNotifier(s.notifier),
		reconcile.WithLogger(s.logger),
		reconcile.WithClock(s.now),
	}
	if s.store != nil {
		engineOpts = append(engineOpts, reconcile.WithStore(s.store, s.optionKey))
	}
	s.engine = reconcile.New(s.registry, engineOpts...)

	if s.includer != nil {
		s.boot, err = loader.New(s.registry, s.resolver, s.includer,
			loader.WithLogger(s.logger),
			loader.WithObserver(func(in loader.Inclusion) {
				s.metrics.RecordInclusion(in.Tier.String(), string(in.Outcome))
			}),
		)
		if err != nil {
			return nil, err
		}
		if err = s.boot.Init(ctx, s.probe); err != nil {
			return nil, err
		}
	}

	s.logger.DebugContext(ctx, "session ready",
		"required", len(s.registry.Required()),
		"recommended", len(s.registry.Recommended()),
		"deactivated", len(s.registry.Deactivated()),
	)
	return s, nil
}

func (s *Session) recordClasses() {
	s.metrics.SetPlugins(observability.ClassRequired, len(s.registry.Required()))
	s.metrics.SetPlugins(observability.ClassRecommended, len(s.registry.Recommended()))
	s.metrics.SetPlugins(observability.ClassDeactivatedRequired, len(s.registry.DeactivatedRequired()))
	s.metrics.SetPlugins(observability.ClassDeactivatedRecommended, len(s.registry.DeactivatedRecommended()))
	n := 0
	for _, bucket := range s.registry.CustomPathAll() {
		n += len(bucket)
	}
	s.metrics.SetPlugins(observability.ClassCustomPath, n)
}

// Resolver returns the path resolver.
func (s *Session) Resolver() *paths.Resolver { return s.resolver }

// Tree returns the merged configuration.
func (s *Session) Tree() config.Tree { return s.tree }

// Sources returns every config file considered, in read order.
func (s *Session) Sources() []config.Source { return s.sources }

// Registry returns the classified plugins.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Engine returns the reconciliation engine.
func (s *Session) Engine() *reconcile.Engine { return s.engine }

// FilterActivePlugins corrects the host's active list. The result is
// memoized until a reset changes the stored list.
func (s *Session) FilterActivePlugins(ctx context.Context, active []string) []string {
	_, span := tracer.Start(ctx, "dictator.dictate",
		trace.WithAttributes(attribute.Int("plugins.active", len(active))))
	defer span.End()

	fresh := !s.engine.Computed()
	out := s.engine.Dictate(active)
	if fresh {
		errs := s.engine.Errors()
		s.metrics.RecordDependencyFailures(len(errs))
		for slug, err := range errs {
			s.logger.WarnContext(ctx, "required plugin not forced", "plugin", slug, "error", err)
		}
	}
	span.SetAttributes(attribute.Int("plugins.dictated", len(out)), attribute.Bool("memoized", !fresh))
	return out
}

// Errors returns the dependency failures of the last dictation by plugin.
func (s *Session) Errors() map[string]error { return s.engine.Errors() }

// Stored reads the host's active list from the store.
func (s *Session) Stored(ctx context.Context) ([]string, error) {
	if s.store == nil {
		return nil, oops.Code("SESSION_NO_STORE").Errorf("no option store configured")
	}
	active, _, err := s.store.Load(ctx, s.optionKey)
	if err != nil {
		return nil, oops.Code("SESSION_STORE_FAILED").With("key", s.optionKey).Wrap(err)
	}
	return active, nil
}

// Active returns the dictated form of the stored active list.
func (s *Session) Active(ctx context.Context) ([]string, error) {
	stored, err := s.Stored(ctx)
	if err != nil {
		return nil, err
	}
	return s.FilterActivePlugins(ctx, stored), nil
}

// Mismatch compares the stored active list with the recommendations.
func (s *Session) Mismatch(ctx context.Context) (reconcile.Mismatch, error) {
	stored, err := s.Stored(ctx)
	if err != nil {
		return reconcile.Mismatch{}, err
	}
	return s.engine.Mismatch(stored), nil
}

// Checkpoint reports that tier's host checkpoint fired and includes its
// custom-path plugins. It returns the included slugs, or nil when no
// includer is configured.
func (s *Session) Checkpoint(ctx context.Context, tier loader.Tier) []string {
	if s.boot == nil {
		return nil
	}
	ctx, span := tracer.Start(ctx, "dictator.checkpoint",
		trace.WithAttributes(attribute.String("checkpoint", tier.String())))
	defer span.End()

	included := s.boot.Checkpoint(ctx, tier)
	span.SetAttributes(attribute.Int("plugins.included", len(included)))
	return included
}

// Inclusions returns every custom-path inclusion attempt so far.
func (s *Session) Inclusions() []loader.Inclusion {
	if s.boot == nil {
		return nil
	}
	return s.boot.Inclusions()
}

// Reset rewrites the stored active list to match the recommendations.
func (s *Session) Reset(ctx context.Context, actor string) (res reconcile.Result, err error) {
	ctx, span := tracer.Start(ctx, "dictator.reset",
		trace.WithAttributes(attribute.String("actor", actor)))
	defer func() { endSpan(span, err) }()

	res, err = s.engine.Reset(ctx, actor)
	switch {
	case err != nil:
		s.metrics.RecordReset(observability.ResetFailed, 0, 0, s.now())
	case res.Changed():
		s.metrics.RecordReset(observability.ResetChanged, len(res.Activated), len(res.Deactivated), s.now())
	default:
		s.metrics.RecordReset(observability.ResetUnchanged, 0, 0, s.now())
	}
	if err == nil {
		span.SetAttributes(
			attribute.String("run_id", res.RunID),
			attribute.Int("plugins.activated", len(res.Activated)),
			attribute.Int("plugins.deactivated", len(res.Deactivated)),
		)
	}
	return res, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
