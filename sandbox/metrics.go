/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sandbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_sessions_total",
			Help: "Sandbox session lifecycle events (acquired, acquire_failed, released, release_failed)",
		},
		[]string{"event"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_runs_total",
			Help: "Snippet executions by snippet and outcome",
		},
		[]string{"snippet", "outcome"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandbox_run_duration_seconds",
			Help:    "Wall-clock duration of snippet executions",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"snippet"},
	)
)
