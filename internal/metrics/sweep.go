// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_runs_total",
		Help:      "Workspace sweep runs by outcome",
	}, []string{"outcome"}) // outcome=success|error

	sweepRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_removed_files_total",
		Help:      "Total stale temp entries removed by the sweeper",
	})

	sweepLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sweep_last_run_timestamp_seconds",
		Help:      "Unix time of the last sweep",
	})
)

// RecordSweep records one sweep pass.
func RecordSweep(removed int, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = "error"
	}
	sweepRunsTotal.WithLabelValues(outcome).Inc()
	sweepRemovedTotal.Add(float64(removed))
	sweepLastRun.Set(float64(time.Now().Unix()))
}
