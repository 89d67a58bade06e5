// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/admin"
	"github.com/plugindictator/dictator/internal/dictator"
	"github.com/plugindictator/dictator/internal/observability"
	"github.com/plugindictator/dictator/internal/reconcile"
)

// defaultActor is recorded for resets run directly from a shell.
const defaultActor = "cli"

type resetConfig struct {
	as    string
	token string
}

// NewResetCmd creates the reset subcommand.
func NewResetCmd() *cobra.Command {
	cfg := &resetConfig{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Rewrite the stored active plugins to match the configuration",
		Long: `Activate every recommended plugin and deactivate every plugin that is
neither recommended nor required, in the option store itself.

With --as the reset is performed on behalf of a principal and needs a
token from 'dictator token' plus the plugins.activate capability in
admin.grants.`,
		Example: `  dictator reset
  dictator reset --as alice --token "$(dictator token --as alice)"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReset(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.as, "as", "", "principal requesting the reset")
	cmd.Flags().StringVar(&cfg.token, "token", "", "reset token issued to the principal")

	return cmd
}

func runReset(cmd *cobra.Command, cfg *resetConfig) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		s, err := a.storedSession(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Starting plugin reset...")

		var res reconcile.Result
		if cfg.as == "" {
			if res, err = s.Reset(ctx, defaultActor); err != nil {
				return err
			}
		} else {
			if res, err = a.authorizedReset(ctx, s, admin.ResetRequest{Principal: cfg.as, Token: cfg.token}); err != nil {
				return err
			}
		}

		writeResetResult(out, res)
		fmt.Fprintln(out, "Success: Plugins reset")
		return nil
	})
}

func (a *app) resetHandler(s *dictator.Session) (*admin.ResetHandler, error) {
	nonces, err := admin.NewNonces(a.settings.Admin.Secret)
	if err != nil {
		return nil, err
	}
	enforcer, err := admin.NewEnforcer(a.settings.Admin.Grants)
	if err != nil {
		return nil, err
	}
	return admin.NewResetHandler(s, nonces, enforcer, a.logger)
}

func (a *app) authorizedReset(ctx context.Context, s *dictator.Session, req admin.ResetRequest) (reconcile.Result, error) {
	h, err := a.resetHandler(s)
	if err != nil {
		return reconcile.Result{}, err
	}
	outcome, err := h.Handle(ctx, req)
	if err != nil {
		return reconcile.Result{}, err
	}
	if !outcome.Performed {
		a.metrics.RecordReset(observability.ResetRefused, 0, 0, time.Now())
		return reconcile.Result{}, oops.Code("RESET_REFUSED").With("principal", req.Principal).
			Errorf("reset refused: %s", outcome.Reason)
	}
	return outcome.Result, nil
}

func writeResetResult(w io.Writer, res reconcile.Result) {
	for _, slug := range res.Activated {
		fmt.Fprintf(w, "Activated %s\n", slug)
	}
	for _, slug := range res.Deactivated {
		fmt.Fprintf(w, "Deactivated %s\n", slug)
	}
	if !res.Changed() {
		fmt.Fprintln(w, "Nothing to change")
	}
}
