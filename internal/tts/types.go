package tts

import "context"

// Provider defaults used whenever a request leaves voice or style unset.
const (
	DefaultVoice = "en-US-natalie"
	DefaultStyle = "Promo"

	// DefaultMaxSegment is the provider's maximum input length for a single
	// synthesis call. Longer text is chunked, never truncated.
	DefaultMaxSegment = 3000
)

// ErrCodeEmptyText marks a request whose text normalized to nothing.
const ErrCodeEmptyText = "EMPTY_TEXT"

// GenerateRequest contains parameters for one synthesis call.
type GenerateRequest struct {
	Text    string
	VoiceID string
	Style   string
}

// Engine is the contract for producing a playable audio reference from text.
// Engine failures propagate to the caller and are never retried here.
type Engine interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Request describes a chunk-aware synthesis request.
type Request struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	Style   string `json:"style"`
}

// AudioResult holds either a single audio reference or an ordered list of
// per-segment references. The two shapes are mutually exclusive by
// construction; the zero AudioResult means no audio was produced.
type AudioResult struct {
	url  string
	urls []string
}

// SingleAudio wraps one audio reference.
func SingleAudio(url string) AudioResult { return AudioResult{url: url} }

// SegmentedAudio wraps an ordered list of per-chunk references.
func SegmentedAudio(urls []string) AudioResult { return AudioResult{urls: urls} }

// URL returns the single reference, empty for segmented or absent audio.
func (a AudioResult) URL() string { return a.url }

// Segments returns the per-chunk references in chunk order.
func (a AudioResult) Segments() []string { return a.urls }

// Empty reports whether no audio reference is present at all.
func (a AudioResult) Empty() bool { return a.url == "" && len(a.urls) == 0 }

// Result is the outcome of a chunk-aware synthesis request.
type Result struct {
	Success bool
	Audio   AudioResult
	Message string
	Err     string
}
