// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/dictator"
)

type listConfig struct {
	fields string
	format string
}

// NewListCmd creates the list subcommand.
func NewListCmd() *cobra.Command {
	cfg := &listConfig{}

	cmd := &cobra.Command{
		Use:   "list [<slug-pattern>...]",
		Short: "List the configured plugins",
		Long: `List every plugin named in the merged configuration with whether it
is activated or deactivated, forced, loaded from a custom path and
currently active. Slug patterns are globs where '*' stays within one
path segment.`,
		Example: `  dictator list --root /srv/www
  dictator list 'jetpack/*' --fields slug,status
  dictator list --force=yes --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, cfg, args)
		},
	}

	cmd.Flags().StringVar(&cfg.fields, "fields", "all", "comma-separated fields to show")
	cmd.Flags().StringVar(&cfg.format, "format", formatTable, "output format (table, csv, json, yaml or ids)")
	for _, f := range dictator.Fields() {
		cmd.Flags().String(f, "", "only show plugins whose "+f+" equals this value")
	}

	return cmd
}

func runList(cmd *cobra.Command, cfg *listConfig, patterns []string) error {
	fields, err := parseFields(cfg.fields)
	if err != nil {
		return err
	}
	filters := make(map[string]string)
	for _, f := range dictator.Fields() {
		if cmd.Flags().Changed(f) {
			filters[f], _ = cmd.Flags().GetString(f)
		}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		s, err := a.storedSession(ctx)
		if err != nil {
			return err
		}
		rows, err := s.Rows(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return oops.Code("NO_PLUGINS").Errorf("no plugins found to list")
		}
		rows, err = dictator.FilterRows(rows, patterns, filters)
		if err != nil {
			return err
		}
		return writeRows(cmd.OutOrStdout(), rows, fields, cfg.format)
	})
}
