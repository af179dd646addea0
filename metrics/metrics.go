package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/livepeer/clipper-core/config"
)

// ClientMetrics instruments one outbound HTTP client (downloader,
// transcriber, LLM) the way this repo always instruments retryable clients.
type ClientMetrics struct {
	RetryCount      *prometheus.GaugeVec
	FailureCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// ClipperMetrics is the process-wide metrics surface. A spec Non-goal
// excludes a metrics *product surface* (dashboards, alerting), but not
// ambient instrumentation of the pipeline itself — every stage and the
// broker are always instrumented here, the way this repo's pipeline
// coordinator always is.
type ClipperMetrics struct {
	Version *prometheus.CounterVec

	JobsInFlight         prometheus.Gauge
	HTTPRequestsInFlight prometheus.Gauge

	StageDuration *prometheus.HistogramVec

	DLQDeliveries *prometheus.CounterVec

	ChunkCount     prometheus.Histogram
	HighlightCount prometheus.Histogram

	SegmentsPublished *prometheus.CounterVec

	Downloader  ClientMetrics
	Transcriber ClientMetrics
	LLM         ClientMetrics
	ProgressBridge ClientMetrics
}

func NewMetrics() *ClipperMetrics {
	m := &ClipperMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "version",
			Help: "Current version of this service that's running. Incremented once on app startup.",
		}, []string{"app", "version"}),

		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_flight",
			Help: "A count of the jobs currently being processed by this worker",
		}),
		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "A count of the http requests in flight against the REST front-end",
		}),

		StageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stage_duration_seconds",
			Help:    "Time taken for one stage worker to process a single delivery",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 600, 1800},
		}, []string{"stage", "outcome"}),

		DLQDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dlq_deliveries_total",
			Help: "Number of deliveries routed to the dead letter queue, by originating queue",
		}, []string{"queue", "reason"}),

		ChunkCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyse_chunk_count",
			Help:    "Number of chunks the analyst split a transcript into for a single ANALYSE call",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		}),
		HighlightCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyse_highlight_count",
			Help:    "Number of highlights the analyst emitted for a single job, after reduce",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		}),

		SegmentsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "collector_segments_published_total",
			Help: "Number of TRANSCRIBE messages published by the collector per parent job",
		}, []string{"outcome"}),

		Downloader:     newClientMetrics("downloader"),
		Transcriber:    newClientMetrics("transcriber"),
		LLM:            newClientMetrics("llm"),
		ProgressBridge: newClientMetrics("progress_bridge"),
	}

	m.Version.WithLabelValues("clipper-core", config.Version).Inc()

	return m
}

func newClientMetrics(name string) ClientMetrics {
	return ClientMetrics{
		RetryCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: name + "_client_retry_count",
			Help: "The number of retried " + name + " requests",
		}, []string{"host"}),
		FailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: name + "_client_failure_count",
			Help: "The total number of failed " + name + " requests",
		}, []string{"host", "status_code"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name + "_client_request_duration",
			Help:    "Time taken to send " + name + " requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"host"}),
	}
}

var Metrics = NewMetrics()
