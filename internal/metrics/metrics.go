// Package metrics registers the Prometheus instruments shared across the
// service. Consumers treat them as opaque sinks.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP handler latency per method/route/status.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weather",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Latency distribution of HTTP handlers",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route", "status"})

	// CacheLookups counts lookups per cache tier and result (hit/miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups per tier and result",
	}, []string{"tier", "result"})

	// SweepsTotal counts retention sweeper runs by outcome.
	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Subsystem: "sweeper",
		Name:      "runs_total",
		Help:      "Retention sweeper runs by outcome",
	}, []string{"status"})

	// SweptRows counts durable rows removed by the retention sweeper.
	SweptRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "weather",
		Subsystem: "sweeper",
		Name:      "deleted_rows_total",
		Help:      "Durable rows deleted by the retention sweeper",
	})
)
