// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the dictator CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dictator",
		Short: "Dictate which WordPress plugins are active",
		Long: `dictator resolves plugins.json files from a WordPress installation,
forces required plugins on, keeps deactivated plugins off and loads
plugins that live outside the plugins directory.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file path (default: XDG_CONFIG_HOME/dictator/config.yaml)")
	pf.String("root", "", "WordPress installation root")
	pf.String("content-dir", "", "content directory (default: <root>/wp-content)")
	pf.String("mu-plugins-dir", "", "must-use plugins directory (default: <content>/mu-plugins)")
	pf.String("plugins-dir", "", "plugins directory (default: <content>/plugins)")
	pf.String("template-dir", "", "parent theme directory")
	pf.String("stylesheet-dir", "", "child theme directory")
	pf.Int("default-priority", 1, "checkpoint tier of custom path plugins without a priority")
	pf.String("store", "bolt", "option store driver (bolt, postgres or memory)")
	pf.String("store-path", "", "bolt option store file (default: XDG_STATE_HOME/dictator/options.db)")
	pf.String("store-dsn", "", "postgres option store connection string")
	pf.String("option-key", "active_plugins", "option holding the active plugin list")
	pf.String("log-format", "text", "log format (json or text)")
	pf.String("log-level", "info", "log level (debug, info, warn or error)")
	pf.String("metrics-textfile", "", "write metrics to this file in Prometheus text format")
	pf.String("admin-secret", "", "secret used to sign reset tokens")

	cmd.AddCommand(
		NewListCmd(),
		NewDictateCmd(),
		NewStatusCmd(),
		NewResetCmd(),
		NewTokenCmd(),
		NewBootCmd(),
		NewPathsCmd(),
		NewSchemaCmd(),
		NewValidateCmd(),
		NewMigrateCmd(),
		NewHistoryCmd(),
	)

	return cmd
}
