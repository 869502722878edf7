// Package prometheus provides Prometheus metrics for TTS synthesis and
// batch runs.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "utts"

var (
	// synthesisRequestDuration is a histogram of provider synthesis call duration.
	synthesisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_request_duration_seconds",
			Help:      "Duration of TTS provider synthesis calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	// synthesisRequestsTotal is a counter of synthesis calls.
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Total number of TTS synthesis calls",
		},
		[]string{"provider", "model", "status"}, // status: success, error
	)

	// synthesisAudioBytesTotal is a counter of audio bytes produced.
	synthesisAudioBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_audio_bytes_total",
			Help:      "Total audio bytes produced by synthesis calls",
		},
		[]string{"provider", "model"},
	)

	// batchDuration is a histogram of total batch run duration.
	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Histogram of total batch run duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	// batchTasksTotal is a counter of batch task outcomes.
	batchTasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_tasks_total",
			Help:      "Total number of batch tasks by outcome",
		},
		[]string{"status"}, // status: success, error
	)

	// batchesActive is a gauge of currently running batches.
	batchesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batches_active",
			Help:      "Number of currently running batch runs",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		synthesisRequestDuration,
		synthesisRequestsTotal,
		synthesisAudioBytesTotal,
		batchDuration,
		batchTasksTotal,
		batchesActive,
	}
)

// RecordSynthesisRequest records one provider synthesis call.
func RecordSynthesisRequest(provider, model, status string, durationSeconds float64) {
	synthesisRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	synthesisRequestsTotal.WithLabelValues(provider, model, status).Inc()
}

// RecordSynthesisAudio records the audio volume a synthesis call produced.
func RecordSynthesisAudio(provider, model string, audioBytes int) {
	if audioBytes > 0 {
		synthesisAudioBytesTotal.WithLabelValues(provider, model).Add(float64(audioBytes))
	}
}

// RecordBatchStart records the start of a batch run.
func RecordBatchStart() {
	batchesActive.Inc()
}

// RecordBatchEnd records the completion of a batch run.
func RecordBatchEnd(durationSeconds float64) {
	batchesActive.Dec()
	batchDuration.Observe(durationSeconds)
}

// RecordBatchTask records one task outcome within a batch.
func RecordBatchTask(status string) {
	batchTasksTotal.WithLabelValues(status).Inc()
}
