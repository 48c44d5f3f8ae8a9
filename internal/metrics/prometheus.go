// Package metrics exposes Prometheus metrics for the speech service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Feature calls proxied to the upstream speech API
	FeatureRequests  *prometheus.CounterVec
	FeatureFailures  *prometheus.CounterVec
	FeatureDuration  *prometheus.HistogramVec
	UploadedAudio    prometheus.Histogram
	SynthesizedAudio prometheus.Histogram

	// Streaming transcription
	ChunksProcessed prometheus.Counter
	ChunkFailures   prometheus.Counter

	// History store
	HistoryWrites   prometheus.Counter
	HistoryStripped prometheus.Counter

	// HTTP layer
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		FeatureRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "speech_feature_requests_total",
			Help: "Total feature requests by operation",
		}, []string{"operation"}),
		FeatureFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "speech_feature_failures_total",
			Help: "Total failed feature requests by operation",
		}, []string{"operation"}),
		FeatureDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speech_feature_duration_seconds",
			Help:    "Duration of feature requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"operation"}),
		UploadedAudio: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_uploaded_audio_bytes",
			Help:    "Size of uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14),
		}),
		SynthesizedAudio: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "speech_synthesized_audio_bytes",
			Help:    "Size of synthesized audio responses",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14),
		}),
		ChunksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_chunks_processed_total",
			Help: "Total streaming chunks transcribed",
		}),
		ChunkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "speech_stream_chunk_failures_total",
			Help: "Total streaming chunk transcription failures",
		}),
		HistoryWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "speech_history_writes_total",
			Help: "Total history items written",
		}),
		HistoryStripped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "speech_history_audio_stripped_total",
			Help: "Total history items stored without audio due to size",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "speech_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speech_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

func (m *Metrics) RecordFeature(operation string, durationSeconds float64, err error) {
	m.FeatureRequests.WithLabelValues(operation).Inc()
	m.FeatureDuration.WithLabelValues(operation).Observe(durationSeconds)
	if err != nil {
		m.FeatureFailures.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
