// Package metrics provides Prometheus metrics for Aerial — counters and
// histograms for migration runs, sanity repairs, and backups.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Migrations ─────────────────────────────────────────────────────────────

// MigrationStepsApplied tracks applied migration steps per store.
var MigrationStepsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aerial",
	Name:      "migration_steps_applied_total",
	Help:      "Total migration steps applied.",
}, []string{"store"})

// MigrationFailures tracks failed migration steps per store.
var MigrationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aerial",
	Name:      "migration_failures_total",
	Help:      "Total failed migration steps.",
}, []string{"store"})

// MigrationDuration tracks full migration run duration in seconds.
var MigrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "aerial",
	Name:      "migration_duration_seconds",
	Help:      "Full migration run duration in seconds.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
}, []string{"store"})

// ─── Sanity Checks ──────────────────────────────────────────────────────────

// SanityFixes tracks rows repaired per sanity check.
var SanityFixes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aerial",
	Name:      "sanity_fixes_total",
	Help:      "Total rows repaired per sanity check.",
}, []string{"check"})

// SanityFailures tracks sanity checks that errored.
var SanityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aerial",
	Name:      "sanity_failures_total",
	Help:      "Total sanity check failures.",
}, []string{"check"})

// ─── Backups ────────────────────────────────────────────────────────────────

// BackupsWritten tracks versioned backups written per store.
var BackupsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "aerial",
	Name:      "backups_written_total",
	Help:      "Total versioned backups written.",
}, []string{"store"})
