// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/store"
)

// migrator is the part of store.Migrator the migrate commands use.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]uint, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(url string) (migrator, error) {
	m, err := store.NewMigrator(url)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres option store schema",
		Long: `Apply or inspect migrations of the postgres option store. The
connection string comes from --store-dsn or the DATABASE_URL environment
variable. Without a subcommand every pending migration is applied.`,
		RunE: runMigrateUp,
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: runMigrateUp},
		&cobra.Command{Use: "down", Short: "Roll back every migration", RunE: runMigrateDown},
		&cobra.Command{Use: "status", Short: "Show the current and pending migrations", RunE: runMigrateStatus},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Long:  `Mark the schema as being at version and clear the dirty flag. Use after fixing a failed migration by hand.`,
			Args:  cobra.ExactArgs(1),
			RunE:  runMigrateForce,
		},
	)

	return cmd
}

// getDatabaseURL returns --store-dsn if set, else DATABASE_URL.
func getDatabaseURL(cmd *cobra.Command) (string, error) {
	if dsn, _ := cmd.Flags().GetString("store-dsn"); dsn != "" {
		return dsn, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", oops.Code("CONFIG_INVALID").Errorf("--store-dsn or DATABASE_URL is required")
}

// parseForceVersion reads a leading integer from s.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer, got %q", s)
	}
	return version, nil
}

func withMigrator(cmd *cobra.Command, fn func(m migrator) error) (err error) {
	url, err := getDatabaseURL(cmd)
	if err != nil {
		return err
	}
	m, err := newMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(m)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
		return nil
	})
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		cmd.Println("Rolling back migrations...")
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Rollback completed successfully")
		return nil
	})
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	return withMigrator(cmd, func(m migrator) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		pending, err := m.Pending()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Fprintf(out, "Current version: %d (%s)\n", version, state)
		if len(pending) == 0 {
			fmt.Fprintln(out, "No pending migrations")
			return nil
		}
		fmt.Fprintln(out, "Pending migrations:")
		for _, v := range pending {
			name, err := store.MigrationName(v)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	})
}

func runMigrateForce(cmd *cobra.Command, args []string) error {
	version, err := parseForceVersion(args[0])
	if err != nil {
		return err
	}
	return withMigrator(cmd, func(m migrator) error {
		if err := m.Force(version); err != nil {
			return err
		}
		cmd.Printf("Forced version %d\n", version)
		return nil
	})
}
