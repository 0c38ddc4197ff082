package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal tracks executed queries
	QueriesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "total",
			Help:      "Total number of queries executed",
		},
		[]string{"op"},
	)

	// QueryErrors tracks per-query failures by error kind
	QueryErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Total number of failed queries",
		},
		[]string{"kind"}, // bad_request, unsupported, crypto, db
	)

	// QueryDuration tracks end-to-end query latency
	QueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to 819ms
		},
		[]string{"op"},
	)

	// BatchesTotal tracks request batches
	BatchesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "batches_total",
			Help:      "Total number of query batches received",
		},
	)

	// OPEEncryptions tracks OPE encrypt operations by result
	OPEEncryptions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ope",
			Name:      "encryptions_total",
			Help:      "Total number of OPE encryptions",
		},
		[]string{"outcome"}, // ok, error
	)
)
