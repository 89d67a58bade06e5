// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/admin"
)

type tokenConfig struct {
	as string
}

// NewTokenCmd creates the token subcommand.
func NewTokenCmd() *cobra.Command {
	cfg := &tokenConfig{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a reset token for a principal",
		Long: `Print a token that lets the principal run 'dictator reset --as'. Tokens
are signed with admin.secret and expire within a day.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.as, "as", "", "principal the token is issued to (required)")

	return cmd
}

func runToken(cmd *cobra.Command, cfg *tokenConfig) error {
	if cfg.as == "" {
		return oops.Code("TOKEN_NO_PRINCIPAL").Errorf("--as is required")
	}
	return withApp(cmd, func(_ context.Context, a *app) error {
		nonces, err := admin.NewNonces(a.settings.Admin.Secret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), nonces.Create(admin.ResetAction, cfg.as))
		return nil
	})
}
