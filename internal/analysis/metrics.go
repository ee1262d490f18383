package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysisRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"}, // "success" or "error"
	)

	analysisBarsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_bars_total",
			Help: "Bars seen by the analysis pipeline",
		},
		[]string{"stage"}, // "raw" or "clean"
	)

	analysisDroppedBarsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_dropped_bars_total",
			Help: "Bars removed during cleaning",
		},
		[]string{"reason"},
	)

	analysisAnomaliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_anomalies_total",
			Help: "Total number of flagged return anomalies",
		},
	)

	analysisRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_run_duration_seconds",
			Help:    "Duration of analysis runs in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
	)
)
