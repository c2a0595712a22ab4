package voice

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a voice capture session.
type State int

const (
	// StateIdle - No capture activity, ready to start.
	StateIdle State = iota
	// StateRequestingPermission - Waiting on the capture permission prompt.
	StateRequestingPermission
	// StateRecording - Microphone open, audio being captured.
	StateRecording
	// StateStopped - Capture ended, artifact available for transcription.
	StateStopped
	// StateTranscribing - Artifact handed to the transcription provider.
	StateTranscribing
	// StateFailed - A capture or transcription step failed. The next
	// started operation leaves this state via Reset.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRequestingPermission:
		return "REQUESTING_PERMISSION"
	case StateRecording:
		return "RECORDING"
	case StateStopped:
		return "STOPPED"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsActive returns true if a capture operation is in flight.
func (s State) IsActive() bool {
	return s == StateRequestingPermission || s == StateRecording || s == StateTranscribing
}

// Errors for invalid state transitions.
var (
	ErrCaptureBusy       = errors.New("a capture operation is already in progress")
	ErrNoActiveRecording = errors.New("no active recording")
	ErrNoCapturedAudio   = errors.New("no captured audio to transcribe")
)

// Lifecycle manages the state machine for a voice capture session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → REQUESTING_PERMISSION → IDLE
//	IDLE → RECORDING → STOPPED → TRANSCRIBING → IDLE
//	  any active state ──→ FAILED ──→ IDLE (via Reset)
//
// Rules:
//   - Recording may only start from IDLE (permission prompts and previous
//     captures must have resolved first)
//   - Stop is only valid while RECORDING
//   - Transcription is only valid from STOPPED
//   - FAILED and IDLE both accept Reset
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a new capture lifecycle in IDLE state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// BeginPermissionRequest transitions IDLE → REQUESTING_PERMISSION.
func (l *Lifecycle) BeginPermissionRequest() error {
	return l.transition(StateRequestingPermission, StateIdle, StateFailed)
}

// BeginRecording transitions IDLE → RECORDING.
func (l *Lifecycle) BeginRecording() error {
	return l.transition(StateRecording, StateIdle, StateFailed)
}

// StopRecording transitions RECORDING → STOPPED.
func (l *Lifecycle) StopRecording() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRecording {
		return ErrNoActiveRecording
	}
	l.state = StateStopped
	return nil
}

// BeginTranscribing transitions STOPPED → TRANSCRIBING.
func (l *Lifecycle) BeginTranscribing() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateStopped {
		return ErrNoCapturedAudio
	}
	l.state = StateTranscribing
	return nil
}

// Fail transitions any active state to FAILED. Returns false if no
// operation was in flight.
func (l *Lifecycle) Fail() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.IsActive() && l.state != StateStopped {
		return false
	}
	l.state = StateFailed
	return true
}

// Reset returns the lifecycle to IDLE. Idempotent; used after a completed
// transcription and to recover from FAILED.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateIdle
}

func (l *Lifecycle) transition(to State, from ...State) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range from {
		if l.state == s {
			l.state = to
			return nil
		}
	}
	return ErrCaptureBusy
}
