// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/dictator"
	"github.com/plugindictator/dictator/internal/loader"
)

type bootConfig struct {
	passed []string
}

// NewBootCmd creates the boot subcommand.
func NewBootCmd() *cobra.Command {
	cfg := &bootConfig{}

	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Simulate a request lifecycle",
		Long: `Run the checkpoints of one request in order: load must-use tier
plugins, dictate the stored active list, then load the plugins and theme
tiers. Custom path plugins written in Lua are executed in a sandbox.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoot(cmd, cfg)
		},
	}

	cmd.Flags().StringSliceVar(&cfg.passed, "passed", nil,
		"checkpoints that already fired before startup (muplugins_loaded, plugins_loaded, after_setup_theme)")

	return cmd
}

func runBoot(cmd *cobra.Command, cfg *bootConfig) error {
	passed := make([]loader.Tier, 0, len(cfg.passed))
	for _, name := range cfg.passed {
		tier, err := loader.ParseTier(name)
		if err != nil {
			return err
		}
		passed = append(passed, tier)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		inc := loader.NewLuaIncluder(a.logger)
		defer inc.Close()

		s, err := a.storedSession(ctx,
			dictator.WithIncluder(inc),
			dictator.WithCheckpointProbe(func(t loader.Tier) bool { return slices.Contains(passed, t) }),
		)
		if err != nil {
			return err
		}

		s.Checkpoint(ctx, loader.TierMustUse)
		active, err := s.Active(ctx)
		if err != nil {
			return err
		}
		s.Checkpoint(ctx, loader.TierPlugins)
		s.Checkpoint(ctx, loader.TierTheme)

		out := cmd.OutOrStdout()
		writeInclusions(out, s.Inclusions())
		fmt.Fprintln(out, "Active plugins:")
		for _, slug := range active {
			fmt.Fprintf(out, "  %s\n", slug)
		}
		return nil
	})
}

func writeInclusions(w io.Writer, inclusions []loader.Inclusion) {
	if len(inclusions) == 0 {
		fmt.Fprintln(w, "No custom path plugins.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "checkpoint\tplugin\toutcome\tpath")
	for _, in := range inclusions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", in.Tier, in.Plugin.Slug, in.Outcome, in.Plugin.Path)
	}
	_ = tw.Flush()
}
