// Package pipeline sequences speech-to-text, language-model query, and
// text-to-speech into a single conversational turn. Every stage failure is
// converted into a structured Result at that stage's boundary; nothing here
// ever surfaces an unhandled failure to the transport layer.
package pipeline

import "github.com/loqalabs/vox-relay/internal/tts"

// Result is the outcome of a query or a full turn. On success exactly one of
// the audio shapes inside Audio is populated; on total failure with the
// fallback unavailable, Audio is empty and the client presents its own canned
// message.
type Result struct {
	Success    bool
	Response   string
	Audio      tts.AudioResult
	Transcript string
	Message    string
	Err        string
}
