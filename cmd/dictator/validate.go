// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/config"
	"github.com/plugindictator/dictator/internal/paths"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [<file>...]",
		Short: "Check plugins.json files against the schema",
		Long: `Validate configuration files against the plugins.json schema. Without
arguments every general configuration file that exists in the
installation is checked. Files that fail are still merged at runtime
when they are valid JSON objects; unknown keys are ignored there.`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return validateFiles(cmd, args)
	}
	return withApp(cmd, func(_ context.Context, a *app) error {
		r := paths.NewResolver(a.settings.Layout, paths.Hooks{})
		var files []string
		for _, loc := range r.ConfigPaths() {
			if loc.Path != "" && r.Exists(loc.Path) {
				files = append(files, loc.Path)
			}
		}
		return validateFiles(cmd, files)
	})
}

func validateFiles(cmd *cobra.Command, files []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range files {
		if err := validateFile(path); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %s\n", path, config.FormatSchemaError(err))
			continue
		}
		fmt.Fprintf(out, "ok   %s\n", path)
	}
	if failed > 0 {
		return oops.Code("VALIDATION_FAILED").With("failed", failed).Errorf("%d of %d files failed validation", failed, len(files))
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No configuration files found.")
	}
	return nil
}

func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
	return config.ValidateSchema(data)
}
