package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record store metrics
var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_request_duration_seconds",
			Help:    "Duration of record store requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"collection", "op"}, // op: insert, select
	)

	recordsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_records_inserted_total",
			Help: "Total number of records inserted by collection",
		},
		[]string{"collection"},
	)
)
