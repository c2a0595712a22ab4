// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_browser_assistant"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Quota metrics
	QuotaDecisions         *prometheus.CounterVec
	QuotaResets            prometheus.Counter
	QuotaPersistenceErrors prometheus.Counter

	// Voice capture metrics
	RecordingsStarted    prometheus.Counter
	RecordingsFailed     *prometheus.CounterVec
	RecordingBytes       prometheus.Counter
	RecordingDuration    prometheus.Histogram
	TranscriptionLatency *prometheus.HistogramVec
	TranscriptionErrors  *prometheus.CounterVec

	// Agent session metrics
	TasksSubmitted        prometheus.Counter
	TasksCompleted        prometheus.Counter
	TasksFailed           prometheus.Counter
	AgentPartsAppended    *prometheus.CounterVec
	AgentExchangeDuration prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		QuotaDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Total number of quota decisions by outcome",
		}, []string{"decision"}),
		QuotaResets: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_resets_total",
			Help:      "Total number of usage window resets",
		}),
		QuotaPersistenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_persistence_errors_total",
			Help:      "Total number of usage ledger failures",
		}),

		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_started_total",
			Help:      "Total number of voice recordings started",
		}),
		RecordingsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_failed_total",
			Help:      "Total number of voice recording failures",
		}, []string{"reason"}),
		RecordingBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_bytes_total",
			Help:      "Total captured audio bytes",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Duration of voice recordings in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		TranscriptionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Transcription latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		TranscriptionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Total number of transcription errors",
		}, []string{"provider", "error_type"}),

		TasksSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks forwarded to the agent",
		}),
		TasksCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that completed successfully",
		}),
		TasksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that failed",
		}),
		AgentPartsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_parts_appended_total",
			Help:      "Total number of streamed message parts appended",
		}, []string{"type"}),
		AgentExchangeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_exchange_duration_seconds",
			Help:      "Duration of agent exchanges in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordQuotaDecision records a quota decision outcome ("allowed" or "denied").
func (m *Metrics) RecordQuotaDecision(decision string) {
	m.QuotaDecisions.WithLabelValues(decision).Inc()
}

// RecordQuotaReset records a usage window reset.
func (m *Metrics) RecordQuotaReset() {
	m.QuotaResets.Inc()
}

// RecordQuotaPersistenceError records a ledger failure.
func (m *Metrics) RecordQuotaPersistenceError() {
	m.QuotaPersistenceErrors.Inc()
}

// RecordRecordingStart records a recording being opened.
func (m *Metrics) RecordRecordingStart() {
	m.RecordingsStarted.Inc()
}

// RecordRecordingFailure records a recording failure by reason.
func (m *Metrics) RecordRecordingFailure(reason string) {
	m.RecordingsFailed.WithLabelValues(reason).Inc()
}

// RecordRecordingEnd records captured bytes and duration for a finished recording.
func (m *Metrics) RecordRecordingEnd(bytes int, durationSeconds float64) {
	m.RecordingBytes.Add(float64(bytes))
	m.RecordingDuration.Observe(durationSeconds)
}

// RecordTranscription records a transcription attempt.
func (m *Metrics) RecordTranscription(provider string, err error, latencySeconds float64) {
	m.TranscriptionLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.TranscriptionErrors.WithLabelValues(provider, "request").Inc()
	}
}

// RecordTranscriptionError records a transcription error by type.
func (m *Metrics) RecordTranscriptionError(provider, errorType string) {
	m.TranscriptionErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordTaskSubmitted records a task forwarded to the agent.
func (m *Metrics) RecordTaskSubmitted() {
	m.TasksSubmitted.Inc()
}

// RecordTaskEnd records a task finishing.
func (m *Metrics) RecordTaskEnd(success bool, durationSeconds float64) {
	m.AgentExchangeDuration.Observe(durationSeconds)
	if success {
		m.TasksCompleted.Inc()
	} else {
		m.TasksFailed.Inc()
	}
}

// RecordPartAppended records a streamed message part by type.
func (m *Metrics) RecordPartAppended(partType string) {
	m.AgentPartsAppended.WithLabelValues(partType).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
