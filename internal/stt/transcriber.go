// Package stt adapts speech-to-text engines into the relay pipeline. Every
// backend returns normalized text; engine failures propagate to the caller
// and are never retried.
package stt

import "context"

// Transcriber abstracts STT backends.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
