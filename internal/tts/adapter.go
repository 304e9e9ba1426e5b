package tts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loqalabs/vox-relay/internal/textutil"
)

// Adapter wraps a synthesis engine with normalization and provider length
// limits. Text over the segment cap is split at word boundaries and
// synthesized call by call; a failing segment aborts the rest, partial
// results are never returned. The adapter itself never substitutes fallback
// audio: the fallback path calls back into this adapter, so doing it here
// would recurse.
type Adapter struct {
	engine     Engine
	maxSegment int
	logger     *slog.Logger
}

func NewAdapter(engine Engine, maxSegment int, logger *slog.Logger) *Adapter {
	if maxSegment <= 0 {
		maxSegment = DefaultMaxSegment
	}
	return &Adapter{
		engine:     engine,
		maxSegment: maxSegment,
		logger:     logger.With(slog.String("component", "tts-adapter")),
	}
}

// Synthesize performs a single synthesis call, filling in default voice and
// style. Engine errors propagate.
func (a *Adapter) Synthesize(ctx context.Context, text, voiceID, style string) (string, error) {
	if voiceID == "" {
		voiceID = DefaultVoice
	}
	if style == "" {
		style = DefaultStyle
	}
	return a.engine.Generate(ctx, GenerateRequest{Text: text, VoiceID: voiceID, Style: style})
}

// SynthesizeChunked normalizes the request text and produces either a single
// audio reference or an ordered list of per-segment references. An empty
// input yields a structured EMPTY_TEXT failure with a nil error; an engine
// failure is returned as a non-nil error for the caller to handle.
func (a *Adapter) SynthesizeChunked(ctx context.Context, req Request) (Result, error) {
	clean := textutil.Normalize(req.Text)
	if clean == "" {
		return Result{
			Success: false,
			Message: "No text provided.",
			Err:     ErrCodeEmptyText,
		}, nil
	}

	if len([]rune(clean)) > a.maxSegment {
		parts := textutil.Split(clean, a.maxSegment)
		urls := make([]string, 0, len(parts))
		for i, part := range parts {
			url, err := a.Synthesize(ctx, part, req.VoiceID, req.Style)
			if err != nil {
				a.logger.Warn("segment synthesis failed",
					slog.Int("segment", i),
					slog.Int("segments", len(parts)),
					slogError(err))
				return Result{}, fmt.Errorf("synthesize segment %d of %d: %w", i+1, len(parts), err)
			}
			urls = append(urls, url)
		}
		return Result{
			Success: true,
			Audio:   SegmentedAudio(urls),
			Message: fmt.Sprintf("Generated %d audio segments.", len(urls)),
		}, nil
	}

	url, err := a.Synthesize(ctx, clean, req.VoiceID, req.Style)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}
	return Result{
		Success: true,
		Audio:   SingleAudio(url),
		Message: "Text-to-speech conversion successful.",
	}, nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
