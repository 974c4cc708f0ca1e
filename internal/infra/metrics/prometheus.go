package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_jobs_processed_total",
		Help: "Total number of thumbnail jobs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkhub_thumbnail_stage_duration_seconds",
		Help:    "Duration of thumbnail pipeline stages",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_frames_extracted_total",
		Help: "Total number of frames extracted across all jobs",
	})

	FramesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_frames_analyzed_total",
		Help: "Total number of frames scored (service or fallback)",
	})

	FallbackAnalysesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_fallback_analyses_total",
		Help: "Total number of frames scored by the local fallback heuristic",
	})

	ThumbnailsRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_rendered_total",
		Help: "Total number of thumbnails rendered successfully",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "linkhub_thumbnail_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkhub_thumbnail_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
