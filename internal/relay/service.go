// Package relay bridges the message bus to the conversation pipeline. It
// collects PCM frames per session, packages the finished utterance as WAV,
// runs a full conversation turn, and publishes the outcome back on the bus.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loqalabs/vox-relay/internal/bus"
	"github.com/loqalabs/vox-relay/internal/config"
	"github.com/loqalabs/vox-relay/internal/pipeline"
	"github.com/loqalabs/vox-relay/internal/protocol"
	"github.com/nats-io/nats.go"
)

const turnTimeout = 45 * time.Second

type Service struct {
	cfg      config.RelayConfig
	bus      *bus.Client
	handler  *pipeline.Handler
	sessions map[string]*sessionState
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	sub      *nats.Subscription
	wg       sync.WaitGroup
	ready    bool
}

type sessionState struct {
	Buffer     []byte
	SampleRate int
	Channels   int
}

func NewService(parent context.Context, cfg config.RelayConfig, busClient *bus.Client, handler *pipeline.Handler) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:      cfg,
		bus:      busClient,
		handler:  handler,
		sessions: make(map[string]*sessionState),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	subject := protocol.SubjectAudioFramePrefix + ".>"
	sub, err := s.bus.Conn().Subscribe(subject, s.handleFrame)
	if err != nil {
		return fmt.Errorf("subscribe audio frames: %w", err)
	}
	s.sub = sub
	s.ready = true
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool {
	return !s.cfg.Enabled || s.ready
}

func (s *Service) handleFrame(msg *nats.Msg) {
	var frame protocol.AudioFrame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		s.bus.Logger().Warn("failed to decode audio frame", slogError(err))
		return
	}
	if frame.SessionID == "" {
		s.bus.Logger().Warn("audio frame missing session id")
		return
	}

	s.mu.Lock()
	state := s.sessions[frame.SessionID]
	if state == nil {
		state = &sessionState{
			SampleRate: s.cfg.SampleRate,
			Channels:   s.cfg.Channels,
		}
		s.sessions[frame.SessionID] = state
	}
	if frame.SampleRate > 0 {
		state.SampleRate = frame.SampleRate
	}
	if frame.Channels > 0 {
		state.Channels = frame.Channels
	}
	state.Buffer = append(state.Buffer, frame.PCM...)
	s.mu.Unlock()

	if frame.Final {
		s.finishUtterance(frame.SessionID)
	}
}

// finishUtterance removes the session buffer and runs the turn in the
// background so the subscription callback never blocks on the pipeline.
func (s *Service) finishUtterance(sessionID string) {
	s.mu.Lock()
	state := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if state == nil || len(state.Buffer) == 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, turnTimeout)
		defer cancel()

		wavData, err := encodeWAV(state.Buffer, state.SampleRate, state.Channels)
		if err != nil {
			s.bus.Logger().Warn("failed to encode utterance",
				slog.String("session_id", sessionID), slogError(err))
			return
		}

		res := s.handler.Turn(ctx, sessionID, wavData)
		s.publishResult(sessionID, res)
	}()
}

func (s *Service) publishResult(sessionID string, res pipeline.Result) {
	msg := protocol.TurnResult{
		SessionID:  sessionID,
		Success:    res.Success,
		Transcript: res.Transcript,
		Response:   res.Response,
		AudioURL:   res.Audio.URL(),
		AudioURLs:  res.Audio.Segments(),
		Message:    res.Message,
		Error:      res.Err,
		Timestamp:  time.Now().UTC(),
	}
	if msg.AudioURLs == nil {
		msg.AudioURLs = []string{}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.bus.Logger().Warn("failed to marshal turn result", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.TurnResultSubject(sessionID), data); err != nil {
		s.bus.Logger().Warn("failed to publish turn result", slogError(err))
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
