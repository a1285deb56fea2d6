package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UsageTracked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_usage_tracked_total",
		Help: "Total number of usage increments merged into the live buffer.",
	})

	UsageIgnored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_usage_ignored_total",
		Help: "Total number of usage increments dropped for a non-positive weight.",
	})

	UsageBufferedBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strata_usage_buffered_buckets",
		Help: "Number of (key, day) buckets waiting in the live buffer.",
	})

	UsageFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_usage_flushes_total",
		Help: "Total number of completed flush cycles.",
	})

	UsageFlushedBuckets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_usage_flushed_buckets_total",
		Help: "Total number of buckets written to the usage store.",
	})

	UsageFlushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_usage_flush_errors_total",
		Help: "Total number of bucket writes that failed during a flush and were dropped.",
	})

	UsageFlushDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strata_usage_flush_duration_ms",
		Help:    "Duration of one flush cycle in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	ProjectionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_projections_applied_total",
		Help: "Total number of events applied to read models, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})
)
