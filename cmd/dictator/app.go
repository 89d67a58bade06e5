// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/activity"
	"github.com/plugindictator/dictator/internal/dictator"
	"github.com/plugindictator/dictator/internal/env"
	"github.com/plugindictator/dictator/internal/logging"
	"github.com/plugindictator/dictator/internal/observability"
	"github.com/plugindictator/dictator/internal/store"
)

// app holds what every command needs once settings are loaded.
type app struct {
	settings *env.Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
	store    store.Store
}

// newApp loads settings from the config file and flags of cmd.
func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	settings, err := env.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup("dictator", cmd.Root().Version, settings.Log.Format, level, cmd.ErrOrStderr())

	return &app{
		settings: settings,
		logger:   logger,
		metrics:  observability.NewMetrics(),
	}, nil
}

// openStore opens the configured option store once.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(ctx, a.settings.Store)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// session builds a session with the app's ambient options followed by opts.
func (a *app) session(ctx context.Context, opts ...dictator.Option) (*dictator.Session, error) {
	base := []dictator.Option{
		dictator.WithLogger(a.logger),
		dictator.WithMetrics(a.metrics),
		dictator.WithDefaultPriority(a.settings.DefaultPriority),
		dictator.WithOptionKey(a.settings.Store.OptionKey),
		dictator.WithNotifier(activity.Hooks{activity.LogHook(a.logger)}),
	}
	return dictator.New(ctx, a.settings.Layout, append(base, opts...)...)
}

// storedSession opens the store and builds a session that uses it.
func (a *app) storedSession(ctx context.Context, opts ...dictator.Option) (*dictator.Session, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return a.session(ctx, append([]dictator.Option{dictator.WithStore(st)}, opts...)...)
}

// Close writes the metrics textfile, if configured, and closes the store.
func (a *app) Close() error {
	var errs []error
	if err := a.metrics.WriteTextfile(a.settings.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withApp runs fn with a loaded app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}
