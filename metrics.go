/*
metrics.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package esl

import "github.com/prometheus/client_golang/prometheus"

// Metrics instrumented against the default Prometheus registry. This is
// the only ambient concern the teacher (cgrates/fsock) doesn't show any
// version of; it's wired in from the examples pack's prometheus/
// client_golang usage (HyphaGroup-oubliette, prysmaticlabs-prysm) per
// SPEC_FULL.md's domain-stack expansion.
var (
	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esl_command_duration_seconds",
		Help:    "Round-trip latency of command/api/bgapi/execute calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"verb"})

	pendingWaiters = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "esl_pending_waiters",
		Help: "Depth of the command/api reply FIFOs.",
	}, []string{"fifo"})

	jobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "esl_jobs_in_flight",
		Help: "Outstanding bg_api jobs awaiting their BACKGROUND_JOB event.",
	})

	eventsReceivedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "esl_events_received_total",
		Help: "Events delivered to the broadcaster, labeled by event name.",
	}, []string{"event_name"})

	slowConsumersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "esl_slow_consumers_total",
		Help: "Event-stream subscribers evicted for falling behind.",
	})

	healthcheckLastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "esl_healthcheck_last_success",
		Help: "Unix timestamp of the last successful health-check status probe.",
	})
)

func init() {
	prometheus.MustRegister(
		commandDuration,
		pendingWaiters,
		jobsInFlight,
		eventsReceivedTotal,
		slowConsumersTotal,
		healthcheckLastSuccess,
	)
}
