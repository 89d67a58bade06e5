// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

// Package observability records resolution metrics and exports them for the
// node exporter's textfile collector.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
)

// Plugin classes reported by the plugins gauge.
const (
	ClassRequired               = "required"
	ClassRecommended            = "recommended"
	ClassDeactivatedRequired    = "deactivated_required"
	ClassDeactivatedRecommended = "deactivated_recommended"
	ClassCustomPath             = "custom_path"
)

// Reset results reported by the resets counter.
const (
	ResetChanged   = "changed"
	ResetUnchanged = "unchanged"
	ResetRefused   = "refused"
	ResetFailed    = "failed"
)

// Metrics holds the resolution metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ConfigSources      *prometheus.CounterVec
	Plugins            *prometheus.GaugeVec
	DependencyFailures prometheus.Counter
	Inclusions         *prometheus.CounterVec
	Resets             *prometheus.CounterVec
	ResetChanges       *prometheus.CounterVec
	LastReset          prometheus.Gauge
}

// NewMetrics creates the metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ConfigSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictator_config_sources_total",
				Help: "Configuration files considered, by outcome",
			},
			[]string{"outcome"},
		),
		Plugins: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dictator_plugins",
				Help: "Declared plugins by classification",
			},
			[]string{"class"},
		),
		DependencyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictator_dependency_failures_total",
			Help: "Required plugins not forced because a dependency is missing",
		}),
		Inclusions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictator_custom_path_inclusions_total",
				Help: "Custom path plugins handled at checkpoints, by checkpoint and outcome",
			},
			[]string{"checkpoint", "outcome"},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictator_resets_total",
				Help: "Reset requests by result",
			},
			[]string{"result"},
		),
		ResetChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dictator_reset_changes_total",
				Help: "Plugins activated or deactivated by resets",
			},
			[]string{"verb"},
		),
		LastReset: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dictator_last_reset_timestamp_seconds",
			Help: "Unix time of the last reset that changed the stored list",
		}),
	}

	m.registry.MustRegister(
		m.ConfigSources,
		m.Plugins,
		m.DependencyFailures,
		m.Inclusions,
		m.Resets,
		m.ResetChanges,
		m.LastReset,
	)
	return m
}

// Gatherer returns the registry holding the metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordSource counts a configuration file outcome.
func (m *Metrics) RecordSource(outcome string) {
	if m == nil {
		return
	}
	m.ConfigSources.WithLabelValues(outcome).Inc()
}

// SetPlugins sets the number of plugins in a class.
func (m *Metrics) SetPlugins(class string, n int) {
	if m == nil {
		return
	}
	m.Plugins.WithLabelValues(class).Set(float64(n))
}

// RecordDependencyFailures counts unresolved dependencies.
func (m *Metrics) RecordDependencyFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DependencyFailures.Add(float64(n))
}

// RecordInclusion counts a custom path plugin outcome at a checkpoint.
func (m *Metrics) RecordInclusion(checkpoint, outcome string) {
	if m == nil {
		return
	}
	m.Inclusions.WithLabelValues(checkpoint, outcome).Inc()
}

// RecordReset counts a reset request and, when it changed anything, its
// changes.
func (m *Metrics) RecordReset(result string, activated, deactivated int, at time.Time) {
	if m == nil {
		return
	}
	m.Resets.WithLabelValues(result).Inc()
	if result != ResetChanged {
		return
	}
	m.ResetChanges.WithLabelValues("activated").Add(float64(activated))
	m.ResetChanges.WithLabelValues("deactivated").Add(float64(deactivated))
	m.LastReset.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return oops.Code("METRICS_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}
