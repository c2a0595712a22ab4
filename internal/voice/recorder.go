package voice

import "context"

// EncodingOptions are the capture encoding parameters shared by both
// recorder backends so recordings sound the same regardless of device.
type EncodingOptions struct {
	SampleRateHz int
	Channels     int
	BitRate      int
}

// DefaultEncodingOptions returns the standard capture parameters.
func DefaultEncodingOptions() EncodingOptions {
	return EncodingOptions{
		SampleRateHz: 44100,
		Channels:     2,
		BitRate:      128000,
	}
}

// Recorder is a capture backend. Exactly one backend is selected at startup;
// the capture service never branches on backend type afterwards.
type Recorder interface {
	// Permissions asks the capture device for access. False means denied.
	// An error means the device itself misbehaved, not that access was
	// refused.
	Permissions(ctx context.Context) (bool, error)

	// Begin opens the device and starts capturing.
	Begin(ctx context.Context) error

	// End stops capturing and returns the finished artifact. The device is
	// released on every return path, including errors.
	End(ctx context.Context) (Artifact, error)
}

// DetectRecorder picks the capture backend for this process: the device
// backend when a recording device is present, the live chunk stream
// otherwise.
func DetectRecorder(device Device, source CaptureSource, dir string, opts EncodingOptions) Recorder {
	if device != nil {
		return NewDeviceRecorder(device, dir, opts)
	}
	return NewStreamRecorder(source, opts)
}
