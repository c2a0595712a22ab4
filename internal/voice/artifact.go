package voice

import (
	"bytes"
	"io"
	"os"
)

// Artifact is one captured audio unit, either held in memory (live chunk
// capture) or on disk (device recording). The MIME type and filename
// extension tell the transcription provider which codec to expect.
type Artifact struct {
	Data     []byte // in-memory audio, nil for file-backed artifacts
	Path     string // file location, empty for in-memory artifacts
	MIMEType string
	Filename string
}

// IsEmpty reports whether the artifact carries no audio at all.
func (a Artifact) IsEmpty() bool {
	return len(a.Data) == 0 && a.Path == ""
}

// Open returns a reader over the audio bytes.
func (a Artifact) Open() (io.ReadCloser, error) {
	if a.Path != "" {
		return os.Open(a.Path)
	}
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

// Size returns the audio byte count, or -1 if the backing file is gone.
func (a Artifact) Size() int64 {
	if a.Path != "" {
		info, err := os.Stat(a.Path)
		if err != nil {
			return -1
		}
		return info.Size()
	}
	return int64(len(a.Data))
}

// Destroy releases the artifact's backing storage. An artifact is consumed
// exactly once; callers destroy it after transcription regardless of outcome.
func (a Artifact) Destroy() error {
	if a.Path != "" {
		return os.Remove(a.Path)
	}
	return nil
}
