package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"aletheia/internal/store"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Chat metrics
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec

	// Collaborator metrics
	ExternalUnavailable *prometheus.CounterVec

	// Feedback metrics
	Feedback *prometheus.CounterVec

	// Idea metrics
	IdeasIngested *prometheus.CounterVec

	// Retention metrics
	SessionsExpired prometheus.Counter
	SessionsPruned  prometheus.Counter

	// Session store reference for dynamic metrics
	sessions *store.SessionStore
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics(sessions *store.SessionStore) *Metrics {
	metrics := &Metrics{
		sessions: sessions,

		// Chat requests counter
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aletheia_chat_requests_total",
			Help: "Total number of chat requests processed",
		}),

		// Chat request latency histogram
		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aletheia_chat_request_duration_seconds",
			Help:    "Chat request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}, // stub generation is fast; external calls dominate
		}),

		// Chat errors by reason
		ChatErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aletheia_chat_errors_total",
			Help: "Total number of chat errors by reason",
		}, []string{"reason"}),

		// External collaborator failures by collaborator name
		ExternalUnavailable: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aletheia_external_unavailable_total",
			Help: "Total number of failed external collaborator calls",
		}, []string{"collaborator"}),

		// Feedback events by type
		Feedback: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aletheia_feedback_total",
			Help: "Total number of feedback submissions by type",
		}, []string{"type"}),

		// Ingested ideas by source
		IdeasIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aletheia_ideas_ingested_total",
			Help: "Total number of ideas ingested by source type",
		}, []string{"source"}),

		// Retention sweep outcomes
		SessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aletheia_sessions_expired_total",
			Help: "Total number of sessions closed by the retention sweep",
		}),
		SessionsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aletheia_sessions_pruned_total",
			Help: "Total number of closed sessions removed by the retention sweep",
		}),
	}

	// Register a collector that reads active session count from the store
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "aletheia_sessions_active",
			Help: "Current number of active chat sessions",
		},
		func() float64 {
			if sessions != nil {
				return float64(sessions.ActiveCount())
			}
			return 0
		},
	))

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordChatRequest records a chat request
func (m *Metrics) RecordChatRequest() {
	m.ChatRequests.Inc()
}

// RecordChatLatency records chat request latency
func (m *Metrics) RecordChatLatency(seconds float64) {
	m.ChatRequestLatency.Observe(seconds)
}

// RecordChatError records a chat error
func (m *Metrics) RecordChatError(reason string) {
	m.ChatErrors.WithLabelValues(reason).Inc()
}

// RecordExternalUnavailable records a failed external collaborator call
func (m *Metrics) RecordExternalUnavailable(collaborator string) {
	m.ExternalUnavailable.WithLabelValues(collaborator).Inc()
}

// RecordFeedback records a feedback submission
func (m *Metrics) RecordFeedback(feedbackType string) {
	m.Feedback.WithLabelValues(feedbackType).Inc()
}

// RecordIdeaIngested records an ingested idea
func (m *Metrics) RecordIdeaIngested(source string) {
	m.IdeasIngested.WithLabelValues(source).Inc()
}

// RecordSessionExpired records a session closed by retention
func (m *Metrics) RecordSessionExpired() {
	m.SessionsExpired.Inc()
}

// RecordSessionPruned records a closed session removed by retention
func (m *Metrics) RecordSessionPruned() {
	m.SessionsPruned.Inc()
}
