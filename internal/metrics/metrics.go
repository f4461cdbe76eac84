package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OUTCOME_OK    = "ok"
	OUTCOME_EMPTY = "empty_input"
	OUTCOME_ERROR = "error"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_analyses_total",
			Help: "Total number of analysis requests by outcome",
		},
		[]string{"outcome"},
	)

	PredictorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiscope_predictor_duration_seconds",
			Help:    "Duration of a single classifier prediction in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"task"},
	)

	PredictorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_predictor_errors_total",
			Help: "Total number of failed classifier predictions",
		},
		[]string{"task"},
	)

	PredictorsReady = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentiscope_predictors_ready",
			Help: "1 when the classifiers passed their last health check",
		},
	)
)

func ObservePrediction(task string, started time.Time, err error) {
	PredictorDuration.WithLabelValues(task).Observe(time.Since(started).Seconds())
	if err != nil {
		PredictorErrors.WithLabelValues(task).Inc()
	}
}

func SetReady(ready bool) {
	if ready {
		PredictorsReady.Set(1)
		return
	}
	PredictorsReady.Set(0)
}
