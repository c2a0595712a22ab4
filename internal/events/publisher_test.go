package events

import (
	"context"
	"testing"
	"time"

	"ai-browser-assistant-service/internal/config"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.KafkaConfig
	}{
		{"disabled", &config.KafkaConfig{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &config.KafkaConfig{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &config.KafkaConfig{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerTasks != nil {
				t.Error("expected nil tasks writer when disabled")
			}
			if p.writerTranscripts != nil {
				t.Error("expected nil transcripts writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &config.KafkaConfig{
		Enabled:          false,
		Brokers:          []string{"localhost:9092"},
		TopicTasks:       "assistant.tasks",
		TopicTranscripts: "assistant.transcripts",
		Principal:        "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicTasks != "assistant.tasks" {
		t.Errorf("expected tasks topic 'assistant.tasks', got %s", p.topicTasks)
	}
	if p.topicTranscripts != "assistant.transcripts" {
		t.Errorf("expected transcripts topic 'assistant.transcripts', got %s", p.topicTranscripts)
	}
}

func TestPublisher_PublishTask_Disabled(t *testing.T) {
	p := New(&config.KafkaConfig{Enabled: false, TopicTasks: "assistant.tasks"})

	event := TaskEvent{
		EventType:   EventTaskSubmitted,
		TaskID:      "task-123",
		UserID:      "user-1",
		Description: "find flights to Lisbon",
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := p.PublishTask(context.Background(), event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishTranscript_Disabled(t *testing.T) {
	p := New(&config.KafkaConfig{Enabled: false, TopicTranscripts: "assistant.transcripts"})

	event := TranscriptEvent{
		EventType: EventVoiceTranscript,
		UserID:    "user-1",
		Provider:  "mock",
		Text:      "hello world",
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.PublishTranscript(context.Background(), event); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&config.KafkaConfig{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
