package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loqalabs/vox-relay/internal/llm"
	"github.com/loqalabs/vox-relay/internal/textutil"
	"github.com/loqalabs/vox-relay/internal/tts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator drives one language-model query end to end: normalize and
// clamp the prompt, invoke the generator, extract the answer, synthesize
// audio for it, and substitute fallback audio whenever a stage fails.
//
// Failure handling is asymmetric: a text-generation failure is fatal to the
// turn, while an audio-generation failure still returns the textual answer
// with fallback audio in place of the real thing.
type Orchestrator struct {
	generator   llm.Generator // nil when the engine is unconfigured
	synth       *tts.Adapter
	fallback    *tts.Fallback
	promptLimit int
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *pipelineMetrics
}

func NewOrchestrator(generator llm.Generator, synth *tts.Adapter, fallback *tts.Fallback, promptLimit int, logger *slog.Logger) *Orchestrator {
	if promptLimit <= 0 {
		promptLimit = 3000
	}
	o := &Orchestrator{
		generator:   generator,
		synth:       synth,
		fallback:    fallback,
		promptLimit: promptLimit,
		logger:      logger.With(slog.String("component", "orchestrator")),
		tracer:      otel.Tracer("github.com/loqalabs/vox-relay/pipeline"),
	}
	m, err := newMetrics()
	if err != nil {
		o.logger.Warn("failed to initialize pipeline metrics", slogError(err))
	}
	o.metrics = m
	return o
}

// Query runs the language-model stage for text with the supplied history
// (oldest first, may be nil) and synthesizes audio for the answer. It always
// returns a well-formed Result and never an error.
func (o *Orchestrator) Query(ctx context.Context, text string, hist []llm.Message) Result {
	ctx, span := o.tracer.Start(ctx, "pipeline.query")
	defer span.End()

	clean := textutil.Normalize(text)
	if clean == "" {
		// Nothing to answer, so no fallback audio either.
		o.metrics.countQuery(ctx, "empty_input")
		return Result{Success: false, Err: "no text provided"}
	}

	clamped := textutil.Clamp(clean, o.promptLimit)
	span.SetAttributes(
		attribute.Int("prompt.received_len", len([]rune(clean))),
		attribute.Int("prompt.clamped_len", len([]rune(clamped))),
	)

	if o.generator == nil {
		o.logger.Warn("language model engine not configured")
		o.metrics.countQuery(ctx, "unconfigured")
		return Result{
			Success:    false,
			Audio:      o.FallbackAudio(ctx),
			Transcript: clamped,
			Err:        "language model not configured; playing fallback audio",
		}
	}

	reply, err := o.generator.Generate(ctx, clamped, hist)
	if err != nil {
		o.logger.Warn("language model query failed", slogError(err))
		o.metrics.countQuery(ctx, "engine_error")
		return Result{
			Success:    false,
			Audio:      o.FallbackAudio(ctx),
			Transcript: clamped,
			Err:        fmt.Sprintf("language model query failed: %v; playing fallback audio", err),
		}
	}

	answer := textutil.Normalize(reply.Flatten())
	if answer == "" {
		// Whitespace-only or structurally empty output is indistinguishable
		// from no answer at all.
		o.metrics.countQuery(ctx, "empty_answer")
		return Result{
			Success:    false,
			Audio:      o.FallbackAudio(ctx),
			Transcript: clamped,
			Err:        "language model produced no response; playing fallback audio",
		}
	}

	synthRes, err := o.synth.SynthesizeChunked(ctx, tts.Request{Text: answer})
	if err != nil {
		o.logger.Warn("answer synthesis failed", slogError(err))
		o.metrics.countQuery(ctx, "synthesis_error")
		return Result{
			Success:    true,
			Response:   answer,
			Audio:      o.FallbackAudio(ctx),
			Transcript: clamped,
			Err:        fmt.Sprintf("speech synthesis failed: %v; playing fallback audio", err),
		}
	}

	o.metrics.countQuery(ctx, "ok")
	return Result{
		Success:    true,
		Response:   answer,
		Audio:      synthRes.Audio,
		Transcript: clamped,
		Message:    synthRes.Message,
	}
}

// FallbackAudio synthesizes the apology utterance, counting the substitution.
// The result may be empty when even the fallback path fails.
func (o *Orchestrator) FallbackAudio(ctx context.Context) tts.AudioResult {
	url := o.fallback.Audio(ctx)
	if url == "" {
		o.metrics.countFallback(ctx, "unavailable")
		return tts.AudioResult{}
	}
	o.metrics.countFallback(ctx, "ok")
	return tts.SingleAudio(url)
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
