// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/store"
)

type historyConfig struct {
	limit  int
	format string
}

// NewHistoryCmd creates the history subcommand.
func NewHistoryCmd() *cobra.Command {
	cfg := &historyConfig{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past resets, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.limit, "limit", 20, "maximum number of resets to show")
	cmd.Flags().StringVar(&cfg.format, "format", formatTable, "output format (table, json or yaml)")

	return cmd
}

func runHistory(cmd *cobra.Command, cfg *historyConfig) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		rec, ok := st.(store.RunRecorder)
		if !ok {
			return oops.Code("HISTORY_UNSUPPORTED").With("driver", a.settings.Store.Driver).
				Errorf("the %s store does not keep reset history", a.settings.Store.Driver)
		}
		runs, err := rec.Runs(ctx, a.settings.Store.OptionKey, cfg.limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch cfg.format {
		case formatTable:
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "run\twhen\tactor\tactivated\tdeactivated")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Actor,
					strings.Join(r.Activated, ","), strings.Join(r.Deactivated, ","))
			}
			return tw.Flush()
		case formatJSON:
			return writeJSON(out, runs)
		case formatYAML:
			return writeYAML(out, runs)
		default:
			return oops.Code("INVALID_FORMAT").With("format", cfg.format).
				Errorf("format must be table, json or yaml, got %q", cfg.format)
		}
	})
}
