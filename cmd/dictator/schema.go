// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/config"
)

type schemaConfig struct {
	output string
}

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	cfg := &schemaConfig{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for plugins.json files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.output, "output", "o", "", "write the schema to this file instead of stdout")

	return cmd
}

func runSchema(cmd *cobra.Command, cfg *schemaConfig) error {
	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}
	if cfg.output == "" {
		_, err := cmd.OutOrStdout().Write(append(schema, '\n'))
		return err
	}
	if err := os.WriteFile(cfg.output, append(schema, '\n'), 0o600); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", cfg.output).Wrap(err)
	}
	cmd.Printf("Wrote %s\n", cfg.output)
	return nil
}
