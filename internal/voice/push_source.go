package voice

import (
	"context"
	"errors"
	"sync"
)

// ErrSourceClosed is returned when a chunk arrives with no open capture.
var ErrSourceClosed = errors.New("capture source is not open")

// PushSource is a CaptureSource fed by the caller, one encoded chunk at a
// time. It backs the stream recorder when audio arrives over the API rather
// than from local hardware.
type PushSource struct {
	mu   sync.Mutex
	ch   chan []byte
	open bool
}

// NewPushSource creates an in-process capture source.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// RequestAccess always grants; the pushing client did its own permission
// prompt before sending audio.
func (p *PushSource) RequestAccess(_ context.Context) (bool, error) {
	return true, nil
}

// Open starts accepting chunks.
func (p *PushSource) Open(_ context.Context, _ EncodingOptions) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return nil, errors.New("capture source already open")
	}
	p.ch = make(chan []byte, 64)
	p.open = true
	return p.ch, nil
}

// Push hands one audio chunk to the recorder. Chunks keep their push order.
func (p *PushSource) Push(chunk []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrSourceClosed
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	p.ch <- buf
	return nil
}

// Close stops accepting chunks and lets the recorder drain the remainder.
func (p *PushSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil
	}
	p.open = false
	close(p.ch)
	return nil
}
