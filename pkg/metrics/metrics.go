// Package metrics exposes Prometheus instrumentation for the notification
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchTotal counts integration dispatch attempts by type and outcome.
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rideway_dispatch_attempts_total",
		Help: "Integration dispatch attempts by integration type and outcome",
	}, []string{"integration_type", "outcome"})

	// DispatchDuration observes per-integration send latency.
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rideway_dispatch_duration_seconds",
		Help:    "Integration send latency by integration type",
		Buckets: prometheus.DefBuckets,
	}, []string{"integration_type"})

	// NotificationsDebounced counts notifications suppressed by the cooldown.
	NotificationsDebounced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rideway_notifications_debounced_total",
		Help: "Notifications suppressed by the per-task cooldown",
	})

	// DueTasksDetected counts newly-due task transitions by trigger.
	DueTasksDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rideway_due_tasks_detected_total",
		Help: "Newly-due task transitions by trigger source",
	}, []string{"trigger"})

	// DueCheckSweeps counts scheduler due-check sweeps by outcome.
	DueCheckSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rideway_due_check_sweeps_total",
		Help: "Periodic due-check sweeps by outcome",
	}, []string{"outcome"})
)
