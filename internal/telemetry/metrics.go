package telemetry

import "github.com/prometheus/client_golang/prometheus"

var JobsEnqueuedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "jobs",
		Name:      "enqueued_total",
		Help:      "Total number of jobs enqueued, by job type.",
	},
	[]string{"job_type"},
)

var JobsClaimedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "jobs",
		Name:      "claimed_total",
		Help:      "Total number of jobs claimed by a worker, by job type.",
	},
	[]string{"job_type"},
)

var JobsCompletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "jobs",
		Name:      "completed_total",
		Help:      "Total number of jobs completed, by job type and outcome.",
	},
	[]string{"job_type", "outcome"},
)

var JobDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "reconwatch",
		Subsystem: "jobs",
		Name:      "duration_seconds",
		Help:      "Job execution duration in seconds, by job type.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	},
	[]string{"job_type"},
)

var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "reconwatch",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds, by method and path.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path"},
)

var SchedulerFiresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "scheduler",
		Name:      "fires_total",
		Help:      "Total number of schedules fired into a run+job.",
	},
)

var PipelineStageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "reconwatch",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Pipeline stage execution duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
	},
	[]string{"stage"},
)

var PipelineRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total number of pipeline runs, by terminal status.",
	},
	[]string{"status"},
)

var AssetsActiveTotal = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "reconwatch",
		Subsystem: "assets",
		Name:      "active_total",
		Help:      "Current number of active assets, by target.",
	},
	[]string{"target_id"},
)

var InventoryTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "inventory",
		Name:      "transitions_total",
		Help:      "Total number of inventory lifecycle transitions, by entity kind and transition.",
	},
	[]string{"entity", "transition"},
)

var DNSQueriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "dns",
		Name:      "queries_total",
		Help:      "Total number of DNS resolution queries, by result.",
	},
	[]string{"result"},
)

var AuditEntriesDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "reconwatch",
		Subsystem: "audit",
		Name:      "entries_dropped_total",
		Help:      "Total number of audit log entries dropped because the writer buffer was full.",
	},
)

// All returns all reconwatch-specific metrics for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		JobsEnqueuedTotal,
		JobsClaimedTotal,
		JobsCompletedTotal,
		JobDuration,
		HTTPRequestDuration,
		SchedulerFiresTotal,
		PipelineStageDuration,
		PipelineRunsTotal,
		AssetsActiveTotal,
		InventoryTransitionsTotal,
		DNSQueriesTotal,
		AuditEntriesDroppedTotal,
	}
}
