package voice

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const deviceMIMEType = "audio/m4a"

// Device is a device-level recording session that encodes straight to a
// file, the way mobile capture hardware works.
type Device interface {
	// RequestAccess triggers the microphone permission prompt.
	RequestAccess(ctx context.Context) (bool, error)

	// Start begins recording into the file at path.
	Start(ctx context.Context, path string, opts EncodingOptions) error

	// Stop finishes the recording and finalizes the file.
	Stop(ctx context.Context) error
}

// DeviceRecorder captures audio through a recording device into a file
// under dir and returns a file-backed artifact.
type DeviceRecorder struct {
	device Device
	dir    string
	opts   EncodingOptions

	mu   sync.Mutex
	path string // empty when no recording is active
}

// NewDeviceRecorder creates a device-backed recorder.
func NewDeviceRecorder(device Device, dir string, opts EncodingOptions) *DeviceRecorder {
	return &DeviceRecorder{device: device, dir: dir, opts: opts}
}

// Permissions asks the device for microphone access.
func (r *DeviceRecorder) Permissions(ctx context.Context) (bool, error) {
	return r.device.RequestAccess(ctx)
}

// Begin starts a device recording into a fresh file.
func (r *DeviceRecorder) Begin(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path != "" {
		return &RecordingError{Reason: "capture already in progress"}
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return &RecordingError{Reason: "could not create recording directory", Err: err}
	}

	path := filepath.Join(r.dir, "recording-"+uuid.NewString()+".m4a")
	if err := r.device.Start(ctx, path, r.opts); err != nil {
		os.Remove(path)
		return &RecordingError{Reason: "could not start recording device", Err: err}
	}

	r.path = path
	return nil
}

// End stops the device and returns the file-backed artifact. The recording
// session is released on every return path; a file left behind by a failed
// stop is removed.
func (r *DeviceRecorder) End(ctx context.Context) (Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return Artifact{}, nil
	}
	path := r.path
	r.path = ""

	if err := r.device.Stop(ctx); err != nil {
		os.Remove(path)
		return Artifact{}, &RecordingError{Reason: "could not stop recording device", Err: err}
	}

	return Artifact{
		Path:     path,
		MIMEType: deviceMIMEType,
		Filename: filepath.Base(path),
	}, nil
}
