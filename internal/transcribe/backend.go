// Package transcribe wraps speech-to-text backends behind one interface.
package transcribe

import "context"

// Transcript is the plain-text speech content of one clip.
type Transcript struct {
	Text        string
	DurationSec float64 // audio length in seconds; -1 when unknown
}

// Backend is a pluggable transcription backend.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (Transcript, error)
}
