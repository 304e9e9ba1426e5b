// Package runtime assembles the daemon: it builds the speech, language, and
// voice engines from configuration, wires them into the conversation pipeline,
// and serves the HTTP and bus surfaces.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loqalabs/vox-relay/internal/bus"
	"github.com/loqalabs/vox-relay/internal/config"
	"github.com/loqalabs/vox-relay/internal/history"
	"github.com/loqalabs/vox-relay/internal/llm"
	"github.com/loqalabs/vox-relay/internal/natsserver"
	"github.com/loqalabs/vox-relay/internal/pipeline"
	"github.com/loqalabs/vox-relay/internal/relay"
	"github.com/loqalabs/vox-relay/internal/stt"
	"github.com/loqalabs/vox-relay/internal/tts"
	"github.com/loqalabs/vox-relay/internal/turnlog"
)

type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	orch    *pipeline.Orchestrator
	handler *pipeline.Handler
	synth   *tts.Adapter
	log     *turnlog.Store

	httpServer    *http.Server
	metricsServer *http.Server
	embedded      *natsserver.EmbeddedServer
	busClient     *bus.Client
	relaySvc      *relay.Service
	tracerClose   func(context.Context) error
	ready         atomic.Bool
	wg            sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	if err := r.buildPipeline(ctx); err != nil {
		return err
	}

	if r.cfg.Bus.Enabled {
		if err := r.startBus(ctx); err != nil {
			return err
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	r.registerAPI(mux)

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	if metricHandler != nil && r.cfg.Telemetry.PrometheusBind != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metricHandler)
		r.metricsServer = &http.Server{
			Addr:              r.cfg.Telemetry.PrometheusBind,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				r.logger.Error("metrics server failed", slog.String("error", err.Error()))
			}
		}()
	}

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if r.relaySvc != nil {
		r.relaySvc.Close()
	}
	r.busClient.Close()
	r.embedded.Shutdown()

	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	if r.metricsServer != nil {
		if err := r.metricsServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
	r.wg.Wait()

	if r.log != nil {
		if err := r.log.Close(); err != nil {
			r.logger.Error("turn log close error", slog.String("error", err.Error()))
		}
	}
	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildPipeline(ctx context.Context) error {
	transcriber, err := buildTranscriber(r.cfg.STT)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(ctx, r.cfg.LLM, r.logger)
	if err != nil {
		return err
	}
	engine, err := buildVoiceEngine(r.cfg.TTS)
	if err != nil {
		return err
	}

	r.synth = tts.NewAdapter(engine, r.cfg.TTS.MaxSegment, r.logger)
	fallback := tts.NewFallback(r.synth, r.logger)
	r.orch = pipeline.NewOrchestrator(generator, r.synth, fallback, r.cfg.LLM.PromptMaxLen, r.logger)

	turnLog, err := turnlog.Open(ctx, r.cfg.TurnLog, r.logger)
	if err != nil {
		return fmt.Errorf("open turn log: %w", err)
	}
	r.log = turnLog

	r.handler = pipeline.NewHandler(transcriber, r.orch, history.NewMemoryStore(), turnLog, r.logger)
	return nil
}

func (r *Runtime) startBus(ctx context.Context) error {
	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("start embedded nats: %w", err)
	}
	r.embedded = embedded

	client, err := bus.Connect(r.cfg.Bus, r.logger)
	if err != nil {
		r.embedded.Shutdown()
		return fmt.Errorf("connect bus: %w", err)
	}
	r.busClient = client

	if r.cfg.Relay.Enabled {
		r.relaySvc = relay.NewService(ctx, r.cfg.Relay, client, r.handler)
		if err := r.relaySvc.Start(); err != nil {
			return fmt.Errorf("start relay service: %w", err)
		}
		r.logger.Info("relay service started")
	}
	return nil
}

func buildTranscriber(cfg config.STTConfig) (stt.Transcriber, error) {
	switch cfg.Mode {
	case "mock":
		return stt.NewMockTranscriber(), nil
	case "assemblyai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("stt mode assemblyai requires an api key")
		}
		return stt.NewAssemblyAITranscriber(cfg.APIKey), nil
	case "exec":
		return stt.NewExecTranscriber(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown stt mode %q", cfg.Mode)
	}
}

// buildGenerator returns a nil Generator when the cloud engine has no API key.
// The pipeline treats nil as unconfigured and serves the fallback response
// instead of refusing to start.
func buildGenerator(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.Mode {
	case "mock":
		return llm.NewMockGenerator(), nil
	case "gemini":
		if cfg.APIKey == "" {
			logger.Warn("no language model api key configured; queries will return fallback audio")
			return nil, nil
		}
		return llm.NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model)
	case "ollama":
		return llm.NewOllamaGenerator(cfg.Endpoint, cfg.Model), nil
	case "exec":
		return llm.NewExecGenerator(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown llm mode %q", cfg.Mode)
	}
}

func buildVoiceEngine(cfg config.TTSConfig) (tts.Engine, error) {
	switch cfg.Mode {
	case "mock":
		return tts.NewMockEngine(), nil
	case "murf":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("tts mode murf requires an api key")
		}
		return tts.NewMurfEngine(cfg.APIKey), nil
	case "exec":
		return tts.NewExecEngine(cfg.Command)
	default:
		return nil, fmt.Errorf("unknown tts mode %q", cfg.Mode)
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !r.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	if r.cfg.Bus.Enabled && !r.busClient.Healthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("bus unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
