package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSession(srv.URL, 5*time.Second, zerolog.Nop())
}

func streamLines(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func TestSession_Send_AppendsPartsInArrivalOrder(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		streamLines(w,
			`{"type":"text","text":"Let me search for that. "}`,
			`{"type":"tool","toolName":"searchWeb","state":"input-available","input":{"query":"best pizza"}}`,
			`{"type":"tool","toolName":"searchWeb","state":"output-available","output":{"results":["a","b"]}}`,
			`{"type":"text","text":"Here is what I found."}`,
		)
	})

	msg, err := session.Send(context.Background(), "find the best pizza")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Role != RoleAssistant {
		t.Errorf("expected assistant message, got %q", msg.Role)
	}
	if len(msg.Parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(msg.Parts))
	}

	wantTypes := []string{PartText, PartTool, PartTool, PartText}
	for i, p := range msg.Parts {
		if p.Seq != i {
			t.Errorf("part %d: expected seq %d, got %d", i, i, p.Seq)
		}
		if p.Type != wantTypes[i] {
			t.Errorf("part %d: expected type %q, got %q", i, wantTypes[i], p.Type)
		}
	}
	if msg.Parts[1].State != ToolInputAvailable {
		t.Errorf("expected input-available tool part, got %q", msg.Parts[1].State)
	}
	if msg.Parts[2].State != ToolOutputAvailable {
		t.Errorf("expected output-available tool part, got %q", msg.Parts[2].State)
	}
	if got := msg.Text(); got != "Let me search for that. Here is what I found." {
		t.Errorf("unexpected assembled text: %q", got)
	}
}

func TestSession_Send_RecordsUserMessageFirst(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		streamLines(w, `{"type":"text","text":"done"}`)
	})

	if _, err := session.Send(context.Background(), "open example.com"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	messages := session.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(messages))
	}
	if messages[0].Role != RoleUser || messages[0].Text() != "open example.com" {
		t.Errorf("expected user message first, got %+v", messages[0])
	}
	if messages[1].Role != RoleAssistant {
		t.Errorf("expected assistant message second, got %+v", messages[1])
	}
}

func TestSession_Send_ForwardsHistoryAndTools(t *testing.T) {
	var got wireRequest
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		streamLines(w, `{"type":"text","text":"ok"}`)
	})

	if _, err := session.Send(context.Background(), "first"); err != nil {
		t.Fatalf("first Send failed: %v", err)
	}
	if _, err := session.Send(context.Background(), "second"); err != nil {
		t.Fatalf("second Send failed: %v", err)
	}

	// The second exchange carries the user message, the prior turn and the
	// full tool catalog.
	if len(got.Messages) != 3 {
		t.Errorf("expected 3 history messages, got %d", len(got.Messages))
	}
	if len(got.Tools) != 8 {
		t.Errorf("expected 8 browser tools, got %d", len(got.Tools))
	}
	names := make(map[string]bool, len(got.Tools))
	for _, tool := range got.Tools {
		names[tool.Name] = true
		if len(tool.InputSchema) == 0 {
			t.Errorf("tool %s: missing input schema", tool.Name)
		}
	}
	for _, want := range []string{"searchWeb", "navigateToUrl", "fillForm", "clickElement",
		"extractData", "takeScreenshot", "scrollPage", "waitForElement"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestSession_Send_StreamErrorSurfacesAndKeepsParts(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		streamLines(w,
			`{"type":"text","text":"partial answer"}`,
			`{this is not json`,
		)
	})

	msg, err := session.Send(context.Background(), "do something")
	if err == nil {
		t.Fatal("expected stream error")
	}
	var exchErr *ExchangeError
	if !errors.As(err, &exchErr) {
		t.Fatalf("expected ExchangeError, got %T", err)
	}
	if msg == nil || len(msg.Parts) != 1 {
		t.Fatalf("expected the part received before the failure to remain, got %+v", msg)
	}

	messages := session.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected failed exchange to stay in the log, got %d messages", len(messages))
	}
}

func TestSession_Send_NonSuccessStatus(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})

	_, err := session.Send(context.Background(), "hello")
	var exchErr *ExchangeError
	if !errors.As(err, &exchErr) {
		t.Fatalf("expected ExchangeError, got %v", err)
	}
}

func TestSession_Subscribe_DeliversAppendEvents(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		streamLines(w,
			`{"type":"text","text":"a"}`,
			`{"type":"text","text":"b"}`,
		)
	})

	events, cancel := session.Subscribe()
	defer cancel()

	done := make(chan struct{})
	var got []PartEvent
	go func() {
		defer close(done)
		for ev := range events {
			got = append(got, ev)
			if len(got) == 3 { // user part + two assistant parts
				return
			}
		}
	}()

	if _, err := session.Send(context.Background(), "go"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	<-done

	if got[0].Role != RoleUser {
		t.Errorf("expected the user part first, got %+v", got[0])
	}
	if got[1].Part.Text != "a" || got[2].Part.Text != "b" {
		t.Errorf("expected assistant parts in arrival order, got %+v", got[1:])
	}
	if got[1].Part.Seq != 0 || got[2].Part.Seq != 1 {
		t.Errorf("expected per-message sequence numbers 0,1, got %d,%d", got[1].Part.Seq, got[2].Part.Seq)
	}
}
