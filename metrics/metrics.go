// Package metrics provides Prometheus metrics for recording sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voxsheet"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeDisabled = "disabled"
)

type Metrics struct {
	Sessions      prometheus.Counter
	EmptySessions prometheus.Counter

	CaptureFrames     prometheus.Counter
	CaptureReadErrors prometheus.Counter

	Transcriptions       *prometheus.CounterVec
	TranscriptionLatency *prometheus.HistogramVec

	SinkWrites      *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance. Registering twice with the
// default registry panics, so everything shares this one.
var DefaultMetrics = NewMetrics()

func NewMetrics() *Metrics {
	return &Metrics{
		Sessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of recording sessions started",
		}),
		EmptySessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_empty_total",
			Help:      "Sessions that ended without any captured audio",
		}),
		CaptureFrames: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_frames_total",
			Help:      "Audio frames read from the microphone",
		}),
		CaptureReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_read_errors_total",
			Help:      "Failed frame reads",
		}),
		Transcriptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Transcription requests by backend and outcome",
		}, []string{"backend", "outcome"}),
		TranscriptionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Time spent waiting for the transcription backend",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"backend"}),
		SinkWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Transcript writes by sink and outcome",
		}, []string{"sink", "outcome"}),
		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Transcript events published to Kafka",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) RecordSessionStart() { m.Sessions.Inc() }

func (m *Metrics) RecordEmptySession() { m.EmptySessions.Inc() }

func (m *Metrics) RecordFrame(err error) {
	if err != nil {
		m.CaptureReadErrors.Inc()
		return
	}
	m.CaptureFrames.Inc()
}

// RecordTranscription records one backend call. outcome is "ok" or the
// failure kind.
func (m *Metrics) RecordTranscription(backend, outcome string, latency time.Duration) {
	m.Transcriptions.WithLabelValues(backend, outcome).Inc()
	m.TranscriptionLatency.WithLabelValues(backend).Observe(latency.Seconds())
}

func (m *Metrics) RecordSinkWrite(sink string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.SinkWrites.WithLabelValues(sink, outcome).Inc()
}

func (m *Metrics) RecordPublish(outcome string) {
	m.EventsPublished.WithLabelValues(outcome).Inc()
}
