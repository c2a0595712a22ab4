package voice

import "fmt"

// RecordingError reports a capture device failure. Permission denial is not
// an error; RequestPermissions reports it as a plain false.
type RecordingError struct {
	Reason string
	Err    error
}

func (e *RecordingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("recording failed: %s", e.Reason)
}

func (e *RecordingError) Unwrap() error { return e.Err }

// TranscriptionError reports a failed transcription attempt. There is no
// internal retry; the caller decides whether to try again.
type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcription failed: %s", e.Reason)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
