package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/loqalabs/vox-relay/internal/history"
	"github.com/loqalabs/vox-relay/internal/llm"
	"github.com/loqalabs/vox-relay/internal/stt"
	"github.com/loqalabs/vox-relay/internal/turnlog"
)

// Handler composes transcription, conversation history, and the query
// orchestrator into one voice round-trip per session.
type Handler struct {
	transcriber stt.Transcriber
	orch        *Orchestrator
	store       history.Store
	log         *turnlog.Store
	logger      *slog.Logger
}

func NewHandler(transcriber stt.Transcriber, orch *Orchestrator, store history.Store, log *turnlog.Store, logger *slog.Logger) *Handler {
	return &Handler{
		transcriber: transcriber,
		orch:        orch,
		store:       store,
		log:         log,
		logger:      logger.With(slog.String("component", "session-handler")),
	}
}

// Turn runs one complete voice round-trip for the session: transcribe,
// query with the session's history, and record the exchange. Every
// transcribed turn is written to history even when the query stage fails;
// the empty model entry keeps the transcript available to later turns.
func (h *Handler) Turn(ctx context.Context, sessionID string, audio []byte) Result {
	turnID := uuid.NewString()
	logger := h.logger.With(slog.String("session_id", sessionID), slog.String("turn_id", turnID))

	text, err := h.transcriber.Transcribe(ctx, audio)
	if err != nil {
		logger.Warn("transcription failed", slogError(err))
		return Result{
			Success: false,
			Audio:   h.orch.FallbackAudio(ctx),
			Err:     fmt.Sprintf("transcription failed: %v; playing fallback audio", err),
		}
	}
	if text == "" {
		return Result{
			Success: false,
			Audio:   h.orch.FallbackAudio(ctx),
			Err:     "no speech detected in audio",
		}
	}

	prior, err := h.store.Get(ctx, sessionID)
	if err != nil {
		logger.Warn("history read failed", slogError(err))
		prior = nil
	}

	res := h.orch.Query(ctx, text, toMessages(prior))
	res.Transcript = text

	pair := []history.Utterance{
		{Role: history.RoleUser, Content: text},
		{Role: history.RoleModel, Content: res.Response},
	}
	h.writeBack(ctx, logger, sessionID, pair, len(prior))
	h.record(ctx, logger, sessionID, turnID, text, res)

	if res.Success {
		h.orch.metrics.countTurn(ctx, "ok")
	} else {
		h.orch.metrics.countTurn(ctx, "failed")
	}
	return res
}

// writeBack appends the turn's user/model pair. A CAS conflict means another
// turn on the same session landed first; the append is retried against the
// fresh length so neither turn's contribution is lost.
func (h *Handler) writeBack(ctx context.Context, logger *slog.Logger, sessionID string, pair []history.Utterance, expectedLen int) {
	for {
		err := h.store.CompareAndSwapAppend(ctx, sessionID, pair, expectedLen)
		if err == nil {
			return
		}
		if !errors.Is(err, history.ErrConflict) {
			logger.Warn("history write failed", slogError(err))
			return
		}
		fresh, getErr := h.store.Get(ctx, sessionID)
		if getErr != nil {
			logger.Warn("history re-read failed", slogError(getErr))
			return
		}
		expectedLen = len(fresh)
	}
}

func (h *Handler) record(ctx context.Context, logger *slog.Logger, sessionID, turnID, transcript string, res Result) {
	if h.log == nil {
		return
	}
	if err := h.log.EnsureSession(ctx, sessionID); err != nil {
		logger.Warn("turn log session failed", slogError(err))
		return
	}
	events := []turnlog.Event{
		{SessionID: sessionID, TurnID: turnID, Type: turnlog.EventTranscript, Payload: []byte(transcript)},
		{SessionID: sessionID, TurnID: turnID, Type: turnlog.EventReply, Payload: []byte(res.Response)},
	}
	if res.Err != "" {
		events = append(events, turnlog.Event{
			SessionID: sessionID, TurnID: turnID, Type: turnlog.EventFallback, Payload: []byte(res.Err),
		})
	}
	for _, evt := range events {
		if err := h.log.Append(ctx, evt); err != nil {
			logger.Warn("turn log append failed", slogError(err))
			return
		}
	}
}

// toMessages converts stored utterances into the role/content ordering the
// language-model engines expect.
func toMessages(entries []history.Utterance) []llm.Message {
	if len(entries) == 0 {
		return nil
	}
	msgs := make([]llm.Message, 0, len(entries))
	for _, u := range entries {
		msgs = append(msgs, llm.Message{Role: llm.Role(u.Role), Content: u.Content})
	}
	return msgs
}
