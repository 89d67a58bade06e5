// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/config"
	"github.com/plugindictator/dictator/internal/paths"
)

// NewPathsCmd creates the paths subcommand.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths [<slug>...]",
		Short: "Show where configuration files are looked up",
		Long: `Print the general configuration file locations in merge order and,
for each slug given, the plugin's own configuration file.`,
		RunE: runPaths,
	}
}

func runPaths(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(_ context.Context, a *app) error {
		r := paths.NewResolver(a.settings.Layout, paths.Hooks{})

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "label\tpath\texists")
		for _, loc := range r.ConfigPaths() {
			if loc.Path == "" {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", loc.Label, loc.Path, yesNo(r.Exists(loc.Path)))
		}
		for _, slug := range args {
			path := r.ConfigForPlugin(slug, "")
			if path == "" {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", config.PluginLabelPrefix+slug, path, yesNo(r.Exists(path)))
		}
		return tw.Flush()
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
