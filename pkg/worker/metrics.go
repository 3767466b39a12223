package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Background task metrics
var (
	tasksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_tasks_failed_total",
			Help: "Total number of failed background tasks by name",
		},
		[]string{"task"}, // send_reply, log_message, mirror_message, insert_record
	)

	tasksDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_tasks_dropped_total",
			Help: "Total number of dropped background tasks by name",
		},
		[]string{"task"},
	)
)
