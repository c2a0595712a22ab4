package voice

import (
	"bytes"
	"context"
	"sync"
)

const streamMIMEType = "audio/webm"

// CaptureSource is a live audio capture stream delivering encoded chunks.
type CaptureSource interface {
	// RequestAccess triggers the capture permission prompt.
	RequestAccess(ctx context.Context) (bool, error)

	// Open starts capture and returns the chunk channel. The channel is
	// closed once the source has flushed its last chunk after Close.
	Open(ctx context.Context, opts EncodingOptions) (<-chan []byte, error)

	// Close stops capture and flushes pending chunks.
	Close() error
}

// StreamRecorder captures audio from a live chunk stream and assembles the
// chunks, in arrival order, into a single in-memory artifact.
type StreamRecorder struct {
	source CaptureSource
	opts   EncodingOptions

	mu     sync.Mutex
	buf    *bytes.Buffer
	done   chan struct{}
	active bool
}

// NewStreamRecorder creates a stream-backed recorder.
func NewStreamRecorder(source CaptureSource, opts EncodingOptions) *StreamRecorder {
	return &StreamRecorder{source: source, opts: opts}
}

// Permissions asks the capture source for access.
func (r *StreamRecorder) Permissions(ctx context.Context) (bool, error) {
	return r.source.RequestAccess(ctx)
}

// Begin opens the chunk stream and starts buffering.
func (r *StreamRecorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return &RecordingError{Reason: "capture already in progress"}
	}

	ch, err := r.source.Open(ctx, r.opts)
	if err != nil {
		return &RecordingError{Reason: "could not open capture stream", Err: err}
	}

	r.buf = &bytes.Buffer{}
	r.done = make(chan struct{})
	r.active = true

	go r.collect(ch)
	return nil
}

// collect drains the chunk channel into the buffer until the source closes
// it. Chunks are appended strictly in arrival order.
func (r *StreamRecorder) collect(ch <-chan []byte) {
	defer close(r.done)
	for chunk := range ch {
		r.mu.Lock()
		r.buf.Write(chunk)
		r.mu.Unlock()
	}
}

// End stops the stream, waits for the final chunks to land and returns the
// assembled artifact. With nothing captured the artifact is empty.
func (r *StreamRecorder) End(ctx context.Context) (Artifact, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return Artifact{}, nil
	}
	r.active = false
	done := r.done
	r.mu.Unlock()

	closeErr := r.source.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return Artifact{}, &RecordingError{Reason: "capture stream did not flush", Err: ctx.Err()}
	}

	r.mu.Lock()
	data := r.buf.Bytes()
	r.buf = nil
	r.mu.Unlock()

	if closeErr != nil {
		return Artifact{}, &RecordingError{Reason: "could not close capture stream", Err: closeErr}
	}

	return Artifact{
		Data:     data,
		MIMEType: streamMIMEType,
		Filename: "recording.webm",
	}, nil
}
