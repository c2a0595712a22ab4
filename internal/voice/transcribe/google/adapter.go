// Package google provides a Google Cloud Speech-to-Text transcription adapter.
package google

import (
	"context"
	"fmt"
	"io"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"ai-browser-assistant-service/internal/voice"
)

// Adapter implements voice.Transcriber using Google Cloud Speech-to-Text
// batch recognition.
type Adapter struct {
	client *speech.Client
	opts   voice.EncodingOptions
}

// New creates a new Google transcription adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, opts voice.EncodingOptions) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c, opts: opts}, nil
}

// Transcribe runs batch recognition over the artifact and joins the top
// alternative of each result.
func (a *Adapter) Transcribe(ctx context.Context, artifact voice.Artifact) (string, error) {
	audio, err := artifact.Open()
	if err != nil {
		return "", fmt.Errorf("open audio artifact: %w", err)
	}
	defer audio.Close()

	content, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("read audio artifact: %w", err)
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			SampleRateHertz:   int32(a.opts.SampleRateHz),
			AudioChannelCount: int32(a.opts.Channels),
			LanguageCode:      "en-US",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: content},
		},
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		parts = append(parts, r.Alternatives[0].Transcript)
	}
	return strings.Join(parts, " "), nil
}

// Close releases the underlying client.
func (a *Adapter) Close() error {
	return a.client.Close()
}
