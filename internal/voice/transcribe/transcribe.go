// Package transcribe constructs the configured transcription provider.
package transcribe

import (
	"context"
	"fmt"

	"ai-browser-assistant-service/internal/config"
	"ai-browser-assistant-service/internal/voice"
	"ai-browser-assistant-service/internal/voice/transcribe/google"
	"ai-browser-assistant-service/internal/voice/transcribe/httpapi"
	"ai-browser-assistant-service/internal/voice/transcribe/mock"
)

// New returns the transcription provider named in the configuration.
func New(ctx context.Context, cfg config.TranscribeConfig, opts voice.EncodingOptions) (voice.Transcriber, error) {
	switch cfg.Provider {
	case "http":
		return httpapi.New(cfg.Endpoint, cfg.Timeout), nil
	case "google":
		return google.New(ctx, opts)
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider: %q", cfg.Provider)
	}
}
