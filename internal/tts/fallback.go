package tts

import (
	"context"
	"log/slog"
)

// FallbackLine is the fixed apology spoken in place of an answer whenever a
// pipeline stage cannot produce real audio.
const FallbackLine = "I'm having trouble connecting right now. Please try again later."

// Fallback synthesizes the apology line on demand. This is the terminal
// degradation step: when even this synthesis fails, Audio returns an empty
// reference and the client is expected to present its own canned message.
type Fallback struct {
	adapter *Adapter
	logger  *slog.Logger
}

func NewFallback(adapter *Adapter, logger *slog.Logger) *Fallback {
	return &Fallback{
		adapter: adapter,
		logger:  logger.With(slog.String("component", "tts-fallback")),
	}
}

// Audio returns a reference to the synthesized apology, or "" when the
// synthesis itself fails. It never returns an error.
func (f *Fallback) Audio(ctx context.Context) string {
	url, err := f.adapter.Synthesize(ctx, FallbackLine, DefaultVoice, DefaultStyle)
	if err != nil {
		f.logger.Warn("fallback audio unavailable", slogError(err))
		return ""
	}
	return url
}
