// Package mock provides a mock transcription adapter for testing and local
// development without a speech service.
package mock

import (
	"context"
	"sync"

	"ai-browser-assistant-service/internal/voice"
)

// DefaultTranscripts provides sample transcripts the adapter cycles through.
var DefaultTranscripts = []string{
	"Search for the best pizza places near me",
	"Go to news.ycombinator.com and summarize the top story",
	"Fill out the contact form with my email address",
	"Take a screenshot of the checkout page",
	"Find the cheapest flight to Lisbon next month",
}

// Adapter implements voice.Transcriber with canned transcripts.
type Adapter struct {
	mu   sync.Mutex
	next int
}

// New creates a new mock transcription adapter.
func New() *Adapter {
	return &Adapter{}
}

// Transcribe returns the next canned transcript, cycling through the list.
func (a *Adapter) Transcribe(_ context.Context, _ voice.Artifact) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	text := DefaultTranscripts[a.next%len(DefaultTranscripts)]
	a.next++
	return text, nil
}
