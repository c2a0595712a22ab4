// Package voice provides the voice capture service: a validated capture
// state machine over a pluggable recorder backend, producing audio
// artifacts for transcription.
package voice

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/observability/metrics"
)

// Transcriber converts a captured artifact into text.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact Artifact) (string, error)
}

// Service coordinates permission prompts, recording and transcription over
// a single capture lifecycle. One service instance serves the process.
type Service struct {
	recorder    Recorder
	transcriber Transcriber
	provider    string
	lifecycle   *Lifecycle
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	started     time.Time
}

// NewService creates a voice capture service. The provider name tags
// transcription metrics.
func NewService(recorder Recorder, transcriber Transcriber, provider string, logger zerolog.Logger) *Service {
	return &Service{
		recorder:    recorder,
		transcriber: transcriber,
		provider:    provider,
		lifecycle:   NewLifecycle(),
		logger:      logger.With().Str("component", "voice-capture").Logger(),
		metrics:     metrics.DefaultMetrics,
	}
}

// State returns the current capture state.
func (s *Service) State() State {
	return s.lifecycle.State()
}

// RequestPermissions triggers the capture permission prompt and reports the
// outcome. Denial is an ordinary false; an unexpected device error is
// logged and likewise reported as not granted.
func (s *Service) RequestPermissions(ctx context.Context) bool {
	if err := s.lifecycle.BeginPermissionRequest(); err != nil {
		s.logger.Warn().Err(err).Stringer("state", s.lifecycle.State()).Msg("Permission request rejected")
		return false
	}
	defer s.lifecycle.Reset()

	granted, err := s.recorder.Permissions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Permission check failed, treating as denied")
		return false
	}
	if !granted {
		s.logger.Info().Msg("Capture permission denied")
	}
	return granted
}

// StartRecording opens the capture device and begins recording. On a device
// failure the state returns to idle and a RecordingError is returned.
func (s *Service) StartRecording(ctx context.Context) error {
	if err := s.lifecycle.BeginRecording(); err != nil {
		return &RecordingError{Reason: "cannot start recording", Err: err}
	}

	if err := s.recorder.Begin(ctx); err != nil {
		s.lifecycle.Reset()
		s.metrics.RecordRecordingFailure("device_open")
		s.logger.Error().Err(err).Msg("Could not start recording")
		return err
	}

	s.started = time.Now()
	s.metrics.RecordRecordingStart()
	s.logger.Info().Msg("Recording started")
	return nil
}

// StopRecording ends the active recording and returns the captured
// artifact. With no recording in progress it returns an empty artifact and
// no error.
func (s *Service) StopRecording(ctx context.Context) (Artifact, error) {
	if err := s.lifecycle.StopRecording(); err != nil {
		s.logger.Debug().Stringer("state", s.lifecycle.State()).Msg("Stop requested with no active recording")
		return Artifact{}, nil
	}

	artifact, err := s.recorder.End(ctx)
	if err != nil {
		s.lifecycle.Fail()
		s.metrics.RecordRecordingFailure("device_stop")
		s.logger.Error().Err(err).Msg("Could not stop recording")
		return Artifact{}, err
	}

	duration := time.Since(s.started)
	s.metrics.RecordRecordingEnd(int(artifact.Size()), duration.Seconds())
	s.logger.Info().
		Int64("bytes", artifact.Size()).
		Dur("duration", duration).
		Str("mimeType", artifact.MIMEType).
		Msg("Recording stopped")
	return artifact, nil
}

// TranscribeAudio sends the artifact to the transcription provider and
// returns the recognized text. The artifact is destroyed whatever the
// outcome. An empty artifact fails immediately without a network call.
func (s *Service) TranscribeAudio(ctx context.Context, artifact Artifact) (string, error) {
	if artifact.IsEmpty() {
		s.lifecycle.Fail()
		s.metrics.RecordTranscriptionError(s.provider, "empty_artifact")
		return "", &TranscriptionError{Reason: "no audio captured"}
	}

	if err := s.lifecycle.BeginTranscribing(); err != nil {
		return "", &TranscriptionError{Reason: "cannot transcribe", Err: err}
	}
	defer func() {
		if err := artifact.Destroy(); err != nil {
			s.logger.Warn().Err(err).Msg("Could not remove consumed artifact")
		}
	}()

	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, artifact)
	s.metrics.RecordTranscription(s.provider, err, time.Since(start).Seconds())
	if err != nil {
		s.lifecycle.Fail()
		s.logger.Error().Err(err).Str("provider", s.provider).Msg("Transcription failed")
		return "", &TranscriptionError{Reason: "provider request failed", Err: err}
	}

	s.lifecycle.Reset()
	s.logger.Info().
		Str("provider", s.provider).
		Int("chars", len(text)).
		Msg("Transcription complete")
	return strings.TrimSpace(text), nil
}
