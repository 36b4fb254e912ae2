package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LogsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logcollector_logs_ingested_total",
			Help: "Total number of log entries persisted by provider and entry point",
		},
		[]string{"provider", "entry_point"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logcollector_validation_failures_total",
			Help: "Total number of requests rejected before persistence",
		},
		[]string{"entry_point"},
	)

	NotifyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logcollector_parser_notify_total",
			Help: "Total number of downstream parser triggers by outcome",
		},
		[]string{"outcome"},
	)

	DedupDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logcollector_dedup_deleted_total",
			Help: "Total number of duplicate entries removed by maintenance runs",
		},
	)
)
