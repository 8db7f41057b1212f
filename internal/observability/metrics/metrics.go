package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "energy_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	rowsDropped *prometheus.CounterVec

	pipelineRuns    *prometheus.CounterVec
	pipelineLatency *prometheus.HistogramVec

	fusionSourceChosen *prometheus.CounterVec

	qualityScore *prometheus.GaugeVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		rowsDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_dropped_total",
				Help: "Total feed rows dropped during normalization by reason",
			},
			[]string{"feed", "reason"},
		)

		pipelineRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pipeline_runs_total",
				Help: "Total pipeline runs by feed and result",
			},
			[]string{"feed", "result"},
		)
		pipelineLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "pipeline_latency_seconds",
				Help:    "Pipeline run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"feed", "result"},
		)

		fusionSourceChosen = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fusion_source_chosen_total",
				Help: "Fused days by chosen source",
			},
			[]string{"source"},
		)

		qualityScore = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "quality_score",
				Help: "Latest quality score per series",
			},
			[]string{"series"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total series exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Series export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			rowsDropped,
			pipelineRuns,
			pipelineLatency,
			fusionSourceChosen,
			qualityScore,
			exportTotal,
			exportLatency,
		)
	})
}

// AddRowsDropped records rows dropped during feed normalization.
func AddRowsDropped(feed, reason string, count int) {
	if count <= 0 || rowsDropped == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	rowsDropped.WithLabelValues(feed, reason).Add(float64(count))
}

// ObservePipelineRun records one pipeline run's result and duration.
func ObservePipelineRun(feed string, err error, duration time.Duration) {
	if pipelineRuns == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	pipelineRuns.WithLabelValues(feed, result).Inc()
	pipelineLatency.WithLabelValues(feed, result).Observe(duration.Seconds())
}

// IncFusionSource counts a fused day by its chosen source.
func IncFusionSource(source string) {
	if fusionSourceChosen != nil {
		fusionSourceChosen.WithLabelValues(source).Inc()
	}
}

// SetQualityScore publishes the latest score for a series.
func SetQualityScore(series string, total float64) {
	if qualityScore != nil {
		qualityScore.WithLabelValues(series).Set(total)
	}
}

// ObserveExport records one export operation.
func ObserveExport(format string, err error, duration time.Duration) {
	if exportTotal == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
}
