// Package metrics defines the Prometheus instrumentation for the
// orchestrator. Collectors are registered on the default registry and served
// by the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AgentsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandstorm_agents_connected",
		Help: "Number of agents with an open command stream.",
	})
	SandboxesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sandstorm_sandboxes",
		Help: "Number of sandboxes by status.",
	}, []string{"status"})
	CommandsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandstorm_commands_dispatched_total",
		Help: "Total number of commands written to agent streams.",
	})
	CommandsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandstorm_commands_completed_total",
		Help: "Total number of command results correlated back to a waiter.",
	})
	CommandsTimedOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandstorm_commands_timed_out_total",
		Help: "Total number of commands whose correlation deadline elapsed.",
	})
	LateResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandstorm_late_results_total",
		Help: "Total number of results that arrived after their correlation was removed.",
	})
	CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandstorm_command_duration_seconds",
		Help:    "Round-trip duration from dispatch to correlated result.",
		Buckets: prometheus.DefBuckets,
	})
	ProvisioningErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandstorm_provisioning_errors_total",
		Help: "Total number of CloudProvider failures.",
	})
)
