package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fictures_worker_tasks_received_total",
			Help: "Total number of generation tasks received from the queue.",
		},
		[]string{"kind"},
	)
	tasksSucceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fictures_worker_tasks_succeeded_total",
			Help: "Total number of generation tasks processed successfully.",
		},
		[]string{"kind"},
	)
	tasksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fictures_worker_tasks_failed_total",
			Help: "Total number of generation tasks that failed, by reason.",
		},
		[]string{"kind", "reason"},
	)
	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fictures_worker_task_duration_seconds",
			Help:    "Histogram of end-to-end task processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"kind"},
	)
)
