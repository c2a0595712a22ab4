package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/observability/metrics"
)

// ErrExchangeInFlight is returned when Send is called while a previous
// exchange is still streaming.
var ErrExchangeInFlight = errors.New("an agent exchange is already in progress")

// ExchangeError reports a failed exchange. Parts appended before the
// failure stay in the log; there is no retry.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("agent exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// PartEvent is delivered to subscribers once per appended part, in append
// order.
type PartEvent struct {
	MessageID string      `json:"messageId"`
	Role      string      `json:"role"`
	Part      MessagePart `json:"part"`
}

// Session is one conversation with the remote agent. It owns the message
// log; parts arriving on the response stream are appended in arrival order
// with strictly increasing sequence numbers per message.
type Session struct {
	id       string
	endpoint string
	httpc    *http.Client
	tools    []Tool
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	messages []*Message
	subs     map[int]chan PartEvent
	nextSub  int
	sending  bool
}

// NewSession creates an agent session against the given endpoint.
func NewSession(endpoint string, timeout time.Duration, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
		tools:    BrowserTools(),
		logger:   logger.With().Str("component", "agent-session").Str("sessionId", id).Logger(),
		metrics:  metrics.DefaultMetrics,
		subs:     make(map[int]chan PartEvent),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Messages returns a snapshot of the conversation log.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		copied := Message{ID: m.ID, Role: m.Role, Parts: make([]MessagePart, len(m.Parts))}
		copy(copied.Parts, m.Parts)
		out = append(out, copied)
	}
	return out
}

// Subscribe registers a part listener. Events arrive in append order and
// none are dropped; the subscriber must keep draining until it cancels.
func (s *Session) Subscribe() (<-chan PartEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan PartEvent, 64)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// wireRequest is the exchange payload sent to the agent endpoint.
type wireRequest struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	Tools     []Tool    `json:"tools"`
}

// wirePart is one ndjson line of the agent's response stream.
type wirePart struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ToolName  string          `json:"toolName,omitempty"`
	State     string          `json:"state,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	ErrorText string          `json:"errorText,omitempty"`
}

// Send posts the user text plus conversation history to the agent and
// consumes the streamed response parts. The returned assistant message holds
// every part that arrived; on a stream failure the parts received so far
// remain in the log and an ExchangeError is returned.
func (s *Session) Send(ctx context.Context, text string) (*Message, error) {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return nil, ErrExchangeInFlight
	}
	s.sending = true

	user := &Message{ID: uuid.NewString(), Role: RoleUser}
	s.messages = append(s.messages, user)
	s.appendPartLocked(user, MessagePart{Type: PartText, Text: text})

	history := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		history = append(history, *m)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	start := time.Now()
	assistant, err := s.exchange(ctx, history)
	s.metrics.RecordTaskEnd(err == nil, time.Since(start).Seconds())
	if err != nil {
		s.logger.Error().Err(err).Msg("Agent exchange failed")
		return assistant, &ExchangeError{Err: err}
	}

	s.logger.Info().
		Str("messageId", assistant.ID).
		Int("parts", len(assistant.Parts)).
		Dur("duration", time.Since(start)).
		Msg("Agent exchange complete")
	return assistant, nil
}

func (s *Session) exchange(ctx context.Context, history []Message) (*Message, error) {
	payload, err := json.Marshal(wireRequest{
		SessionID: s.id,
		Messages:  history,
		Tools:     s.tools,
	})
	if err != nil {
		return nil, fmt.Errorf("encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("agent endpoint returned %s: %s",
			resp.Status, strings.TrimSpace(string(detail)))
	}

	assistant := &Message{ID: uuid.NewString(), Role: RoleAssistant}
	s.mu.Lock()
	s.messages = append(s.messages, assistant)
	s.mu.Unlock()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var wp wirePart
		if err := json.Unmarshal(line, &wp); err != nil {
			return assistant, fmt.Errorf("decode stream part: %w", err)
		}

		part := MessagePart{
			Type:      wp.Type,
			Text:      wp.Text,
			ToolName:  wp.ToolName,
			State:     wp.State,
			Input:     wp.Input,
			Output:    wp.Output,
			ErrorText: wp.ErrorText,
		}
		s.mu.Lock()
		s.appendPartLocked(assistant, part)
		s.mu.Unlock()
	}
	if err := scanner.Err(); err != nil {
		return assistant, fmt.Errorf("read agent stream: %w", err)
	}
	return assistant, nil
}

// appendPartLocked assigns the next sequence number, appends the part to
// its message and notifies every subscriber. Callers must hold s.mu.
func (s *Session) appendPartLocked(msg *Message, part MessagePart) {
	part.Seq = len(msg.Parts)
	msg.Parts = append(msg.Parts, part)
	s.metrics.RecordPartAppended(part.Type)

	ev := PartEvent{MessageID: msg.ID, Role: msg.Role, Part: part}
	for _, sub := range s.subs {
		sub <- ev
	}
}
