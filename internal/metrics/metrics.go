// Copyright (c) 2026 Econbot Team
// Econbot - Discord economy and governance bot
// This source code is licensed under the MIT license found in the LICENSE file.

// Package metrics holds the Prometheus collectors of the bot and the small
// ops HTTP server that exposes them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	transfers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "economy",
			Name:      "transfers_total",
			Help:      "Transfers processed, by mode and result.",
		},
		[]string{"mode", "result"},
	)

	transferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "econbot",
			Subsystem: "economy",
			Name:      "transfer_duration_seconds",
			Help:      "Duration of transfer execution.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"mode"},
	)

	telemetryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "telemetry",
			Name:      "events_total",
			Help:      "Telemetry notifications received, by event type.",
		},
		[]string{"event_type"},
	)

	telemetryDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "telemetry",
			Name:      "dropped_total",
			Help:      "Telemetry notifications dropped, by reason.",
		},
		[]string{"reason"},
	)

	poolQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "econbot",
			Subsystem: "eventpool",
			Name:      "queue_depth",
			Help:      "Pending transfers waiting to be processed.",
		},
	)

	proposals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "governance",
			Name:      "proposals_total",
			Help:      "Proposals by body and final or initial status.",
		},
		[]string{"body", "status"},
	)

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Application commands handled, by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econbot",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and success.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		transfers,
		transferDuration,
		telemetryEvents,
		telemetryDropped,
		poolQueueDepth,
		proposals,
		commands,
		jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// RecordTransfer counts one transfer attempt. mode is "direct" or "pool".
func RecordTransfer(mode, result string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	transfers.WithLabelValues(mode, result).Inc()
	transferDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordTelemetryEvent counts a decoded notification.
func RecordTelemetryEvent(eventType string) {
	if eventType == "" {
		eventType = "unknown"
	}
	telemetryEvents.WithLabelValues(eventType).Inc()
}

// RecordTelemetryDropped counts a notification that was not dispatched.
func RecordTelemetryDropped(reason string) {
	telemetryDropped.WithLabelValues(reason).Inc()
}

// SetPoolQueueDepth reports the event pool backlog.
func SetPoolQueueDepth(n int) {
	poolQueueDepth.Set(float64(n))
}

// RecordProposal counts a proposal reaching status.
func RecordProposal(body, status string) {
	proposals.WithLabelValues(body, status).Inc()
}

// RecordCommand counts a handled application command.
func RecordCommand(command, outcome string) {
	commands.WithLabelValues(command, outcome).Inc()
}

// RecordJobRun counts a scheduler run.
func RecordJobRun(job string, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}
