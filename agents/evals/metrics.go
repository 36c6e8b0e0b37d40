/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_evaluations_total",
			Help: "Total number of agent trace evaluations performed",
		},
		[]string{"namespace"},
	)

	failureCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_evaluation_failures_total",
			Help: "Total number of failed agent trace evaluations",
		},
		[]string{"namespace"},
	)

	gradeGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agent_evaluation_grade",
			Help: "Most recent evaluation grade (0.0-1.0)",
		},
		[]string{"namespace"},
	)
)

// MetricsObserver exports evaluations of one namespace as Prometheus metrics.
type MetricsObserver struct {
	evalCounter prometheus.Counter
	failCounter prometheus.Counter
	gradeGauge  prometheus.Gauge
}

var _ Observer = (*MetricsObserver)(nil)

// NewMetricsObserver creates a metrics observer labeled with namespace. It
// fits NewNamespacedObserver as a factory.
func NewMetricsObserver(namespace string) *MetricsObserver {
	labels := prometheus.Labels{"namespace": namespace}
	return &MetricsObserver{
		evalCounter: evaluationCounter.With(labels),
		failCounter: failureCounter.With(labels),
		gradeGauge:  gradeGauge.With(labels),
	}
}

func (m *MetricsObserver) Increment() { m.evalCounter.Inc() }
func (m *MetricsObserver) Fail(string) { m.failCounter.Inc() }
func (m *MetricsObserver) Grade(score float64, _ string) { m.gradeGauge.Set(score) }

// Log is a no-op; messages are not metrics.
func (m *MetricsObserver) Log(string) {}
