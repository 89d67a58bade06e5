// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/dictator"
)

// NewDictateCmd creates the dictate subcommand.
func NewDictateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dictate [<slug>...]",
		Short: "Print the corrected active plugin list",
		Long: `Apply the configuration to an active plugin list and print the result,
one slug per line. Without arguments the list is read from the option
store.`,
		RunE: runDictate,
	}
}

func runDictate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		var (
			s      *dictator.Session
			active []string
			err    error
		)
		if len(args) > 0 {
			s, err = a.session(ctx)
			if err != nil {
				return err
			}
			active = s.FilterActivePlugins(ctx, args)
		} else {
			s, err = a.storedSession(ctx)
			if err != nil {
				return err
			}
			if active, err = s.Active(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		for _, slug := range active {
			fmt.Fprintln(out, slug)
		}
		for slug, err := range s.Errors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "not forced: %s: %v\n", slug, err)
		}
		return nil
	})
}
