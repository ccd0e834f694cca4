package carnivalsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Old-Man-Footy/old-man-footy-sub011/internal/service/carnivalsync/reconcile"
)

var (
	syncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mysideline_sync_runs_total",
			Help: "Total number of MySideline sync runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	syncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mysideline_sync_run_duration_seconds",
			Help:    "Wall-clock duration of MySideline sync runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)

	syncEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mysideline_sync_events_total",
			Help: "Carnival records handled by the reconciler by action",
		},
		[]string{"action"}, // created, updated, skipped, error
	)

	syncFetchAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mysideline_fetch_attempts",
			Help:    "HTTP attempts needed per MySideline fetch",
			Buckets: []float64{1, 2, 3, 5, 10},
		},
	)

	syncRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mysideline_sync_running",
			Help: "1 while this process is executing a MySideline sync run",
		},
	)
)

func observeReport(r reconcile.Report) {
	syncEvents.WithLabelValues(string(reconcile.ActionCreated)).Add(float64(r.Created))
	syncEvents.WithLabelValues(string(reconcile.ActionUpdated)).Add(float64(r.Updated))
	syncEvents.WithLabelValues(string(reconcile.ActionSkipped)).Add(float64(r.Skipped))
	syncEvents.WithLabelValues(string(reconcile.ActionError)).Add(float64(r.Errors))
}
