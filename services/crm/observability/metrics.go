// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the CRM service.
//
// # Description
//
// Implements metrics for the orchestration pipeline:
//   - Run counters by action kind and status
//   - Per-stage duration histograms
//   - Understanding-service call duration
//   - Active websocket session gauge
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "hcpcrm"

// Subsystem for pipeline metrics.
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for pipeline runs.
type PipelineMetrics struct {
	// RunsTotal counts pipeline runs.
	// Labels: action (create_interaction, edit_interaction, search_hcp,
	// set_user_name, no_action), status (success, error)
	RunsTotal *prometheus.CounterVec

	// StageDurationSeconds observes how long each pipeline stage takes.
	// Labels: stage (EXTRACT, SUMMARIZE, COMPLY, ROUTE)
	StageDurationSeconds *prometheus.HistogramVec

	// UnderstandingCallSeconds observes the duration of understanding-
	// service calls, including failures.
	UnderstandingCallSeconds prometheus.Histogram

	// ActiveChatSessions gauges currently connected websocket sessions.
	ActiveChatSessions prometheus.Gauge
}

var (
	defaultMetrics *PipelineMetrics
	metricsOnce    sync.Once
)

// Default returns the process-wide PipelineMetrics, creating and
// registering it on first use. promauto panics on duplicate registration,
// so construction is guarded by a sync.Once.
func Default() *PipelineMetrics {
	metricsOnce.Do(func() {
		defaultMetrics = newPipelineMetrics()
	})
	return defaultMetrics
}

func newPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "runs_total",
			Help:      "Pipeline runs by action kind and status.",
		}, []string{"action", "status"}),

		StageDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		UnderstandingCallSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: pipelineSubsystem,
			Name:      "understanding_call_seconds",
			Help:      "Duration of understanding-service calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		ActiveChatSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Currently connected websocket chat sessions.",
		}),
	}
}
