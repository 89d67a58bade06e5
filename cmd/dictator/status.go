// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/plugindictator/dictator/internal/config"
)

// Status reports how the stored active list differs from the configuration.
type Status struct {
	Sources           []SourceStatus    `json:"sources"             yaml:"sources"`
	ShouldBeActive    []string          `json:"should_be_active"    yaml:"should_be_active"`
	ShouldNotBeActive []string          `json:"should_not_be_active" yaml:"should_not_be_active"`
	NotForced         map[string]string `json:"not_forced,omitempty" yaml:"not_forced,omitempty"`
}

// SourceStatus describes one config file considered.
type SourceStatus struct {
	Label   string `json:"label"           yaml:"label"`
	Path    string `json:"path"            yaml:"path"`
	Outcome string `json:"outcome"         yaml:"outcome"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

type statusConfig struct {
	format string
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how the active plugins differ from the configuration",
		Long: `Show the config files that were read, recommended plugins that are not
active, active plugins that are neither recommended nor required and
required plugins that could not be forced on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.format, "format", formatText, "output format (text, json or yaml)")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		s, err := a.storedSession(ctx)
		if err != nil {
			return err
		}
		mismatch, err := s.Mismatch(ctx)
		if err != nil {
			return err
		}
		if _, err := s.Active(ctx); err != nil {
			return err
		}

		st := Status{
			Sources:           sourceStatuses(s.Sources()),
			ShouldBeActive:    mismatch.ShouldBeActive,
			ShouldNotBeActive: mismatch.ShouldNotBeActive,
		}
		if errs := s.Errors(); len(errs) > 0 {
			st.NotForced = make(map[string]string, len(errs))
			for slug, err := range errs {
				st.NotForced[slug] = err.Error()
			}
		}

		switch cfg.format {
		case formatText:
			return writeStatusText(cmd.OutOrStdout(), st)
		case formatJSON:
			return writeJSON(cmd.OutOrStdout(), st)
		case formatYAML:
			return writeYAML(cmd.OutOrStdout(), st)
		default:
			return oops.Code("INVALID_FORMAT").With("format", cfg.format).
				Errorf("format must be text, json or yaml, got %q", cfg.format)
		}
	})
}

func sourceStatuses(sources []config.Source) []SourceStatus {
	out := make([]SourceStatus, 0, len(sources))
	for _, src := range sources {
		ss := SourceStatus{Label: src.Label, Path: src.Path, Outcome: string(src.Outcome)}
		if src.Err != nil {
			ss.Error = src.Err.Error()
		}
		out = append(out, ss)
	}
	return out
}

func writeStatusText(w io.Writer, st Status) error {
	fmt.Fprintln(w, "Config files:")
	for _, src := range st.Sources {
		if src.Path == "" {
			continue
		}
		fmt.Fprintf(w, "  %-8s %s (%s)\n", src.Outcome, src.Path, src.Label)
	}

	if len(st.ShouldBeActive) == 0 && len(st.ShouldNotBeActive) == 0 {
		fmt.Fprintln(w, "Active plugins match the configuration.")
	}
	if len(st.ShouldBeActive) > 0 {
		fmt.Fprintln(w, "Should be active:")
		for _, slug := range st.ShouldBeActive {
			fmt.Fprintf(w, "  %s\n", slug)
		}
	}
	if len(st.ShouldNotBeActive) > 0 {
		fmt.Fprintln(w, "Should not be active:")
		for _, slug := range st.ShouldNotBeActive {
			fmt.Fprintf(w, "  %s\n", slug)
		}
	}
	if len(st.NotForced) > 0 {
		fmt.Fprintln(w, "Required but not forced:")
		for _, slug := range slices.Sorted(maps.Keys(st.NotForced)) {
			fmt.Fprintf(w, "  %s: %s\n", slug, st.NotForced[slug])
		}
	}
	if len(st.ShouldBeActive) > 0 || len(st.ShouldNotBeActive) > 0 {
		fmt.Fprintln(w, "Run 'dictator reset' to fix.")
	}
	return nil
}
