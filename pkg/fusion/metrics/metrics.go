package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction run metrics
	ExtractionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_extraction_runs_total",
			Help: "Total number of extraction runs",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "fusion_stage_duration_seconds",
			Help: "Time spent in each pipeline stage",
		},
		[]string{"stage"},
	)

	// Fusion metrics
	ElementsFused = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_elements_total",
			Help: "Number of fused elements by matching method",
		},
		[]string{"method"},
	)

	ConnectionsExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_connections_total",
			Help: "Number of extracted connections",
		},
		[]string{"kind"},
	)

	ParseWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_parse_warnings_total",
			Help: "Number of malformed grounding units skipped",
		},
	)

	// OCR service metrics
	ServiceRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_service_request_errors_total",
			Help: "Number of failed OCR service requests",
		},
		[]string{"mode"},
	)
)
