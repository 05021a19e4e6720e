// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeInvalid  = "invalid"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_total",
		Help:      "Total media jobs by operation and outcome",
	}, []string{"operation", "outcome"}) // outcome=success|failed|timeout|canceled|invalid

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time of external tool runs by operation",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2.5, 12), // 100ms to ~6h
	}, []string{"operation"})

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_in_flight",
		Help:      "Number of external tool processes currently running",
	})

	jobQueueWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_queue_wait_seconds",
		Help:      "Time spent waiting for a job slot",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	})

	jobRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_rejected_total",
		Help:      "Jobs refused before a process was spawned, by reason",
	}, []string{"reason"}) // reason=busy|rate_limited
)

// RecordJob records a finished job.
func RecordJob(operation, outcome string, d time.Duration) {
	jobsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome != OutcomeInvalid {
		jobDuration.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func IncJobsInFlight() { jobsInFlight.Inc() }
func DecJobsInFlight() { jobsInFlight.Dec() }

func ObserveQueueWait(d time.Duration) { jobQueueWait.Observe(d.Seconds()) }

func IncJobRejected(reason string) { jobRejectedTotal.WithLabelValues(reason).Inc() }
