// Package events publishes task and transcript lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/observability/metrics"
)

// Event types.
const (
	EventTaskSubmitted   = "task.submitted"
	EventTaskCompleted   = "task.completed"
	EventTaskFailed      = "task.failed"
	EventVoiceTranscript = "voice.transcript"
)

// TaskEvent describes one browser task lifecycle transition.
type TaskEvent struct {
	EventType   string `json:"eventType"`
	TaskID      string `json:"taskId"`
	UserID      string `json:"userId"`
	Description string `json:"description"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// TranscriptEvent describes one completed voice transcription.
type TranscriptEvent struct {
	EventType string `json:"eventType"`
	UserID    string `json:"userId"`
	Provider  string `json:"provider"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes task and transcript events to separate Kafka topics.
// When Kafka is disabled it degrades to log-only mode; publishing never
// blocks the user-facing flow on broker availability.
type Publisher struct {
	writerTasks       *kafka.Writer
	writerTranscripts *kafka.Writer
	principal         string
	topicTasks        string
	topicTranscripts  string
	enabled           bool
	metrics           *metrics.Metrics
}

// New creates a new Kafka event publisher.
func New(cfg *config.KafkaConfig) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:        cfg.Principal,
			topicTasks:       cfg.TopicTasks,
			topicTranscripts: cfg.TopicTranscripts,
			enabled:          false,
			metrics:          m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerTasks := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTasks,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerTranscripts := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscripts,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTasks", cfg.TopicTasks).
		Str("topicTranscripts", cfg.TopicTranscripts).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTasks:       writerTasks,
		writerTranscripts: writerTranscripts,
		principal:         cfg.Principal,
		topicTasks:        cfg.TopicTasks,
		topicTranscripts:  cfg.TopicTranscripts,
		enabled:           true,
		metrics:           m,
	}
}

// PublishTask publishes a task lifecycle event, keyed by task ID.
func (p *Publisher) PublishTask(ctx context.Context, event TaskEvent) error {
	return p.publish(ctx, p.writerTasks, p.topicTasks, event.EventType, event.TaskID, event)
}

// PublishTranscript publishes a transcript event, keyed by user ID.
func (p *Publisher) PublishTranscript(ctx context.Context, event TranscriptEvent) error {
	return p.publish(ctx, p.writerTranscripts, p.topicTranscripts, event.EventType, event.UserID, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTasks != nil {
		if e := p.writerTasks.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing tasks writer")
			err = e
		}
	}
	if p.writerTranscripts != nil {
		if e := p.writerTranscripts.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcripts writer")
			err = e
		}
	}
	return err
}
