package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the FIR assistance pipeline
type Metrics struct {
	// Audio source adapter
	AudioNormalized *prometheus.CounterVec

	// Transcription client
	TranscriptionOutcomes *prometheus.CounterVec
	TranscriptionDuration prometheus.Histogram

	// Listening sessions
	ActiveListeningSessions prometheus.Gauge
	ListeningUtterances     *prometheus.CounterVec

	// Collaborators
	AssistantDuration   prometheus.Histogram
	AssistantFailures   prometheus.Counter
	TranslationFailures prometheus.Counter
	SynthesisOutcomes   *prometheus.CounterVec

	// Surfaces
	IncidentRequests *prometheus.CounterVec
}

// New creates the metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AudioNormalized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firassist_audio_normalized_total",
			Help: "Audio sources normalized, by source kind and outcome",
		}, []string{"source", "outcome"}),

		TranscriptionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firassist_transcription_outcomes_total",
			Help: "Transcription attempts by outcome",
		}, []string{"outcome"}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "firassist_transcription_duration_seconds",
			Help:    "Time spent in the recognition collaborator",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),

		ActiveListeningSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "firassist_listening_sessions_active",
			Help: "Listening sessions with a running worker",
		}),
		ListeningUtterances: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firassist_listening_utterances_total",
			Help: "Utterances published by listening sessions, by outcome",
		}, []string{"outcome"}),

		AssistantDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "firassist_assistant_duration_seconds",
			Help:    "Time spent waiting for the generative-text collaborator",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		AssistantFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "firassist_assistant_failures_total",
			Help: "Failed generative-text calls",
		}),
		TranslationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "firassist_translation_failures_total",
			Help: "Failed translation calls",
		}),
		SynthesisOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firassist_synthesis_outcomes_total",
			Help: "Speech synthesis attempts by outcome",
		}, []string{"outcome"}),

		IncidentRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "firassist_incident_requests_total",
			Help: "Incident submissions by input mode",
		}, []string{"mode"}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests and tools
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
