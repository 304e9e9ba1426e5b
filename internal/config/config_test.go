package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Voice != "en-US-natalie" || cfg.TTS.Style != "Promo" {
		t.Fatalf("unexpected tts defaults: %+v", cfg.TTS)
	}
	if cfg.TTS.MaxSegment != 3000 || cfg.LLM.PromptMaxLen != 3000 {
		t.Fatalf("unexpected length limits: tts=%d llm=%d", cfg.TTS.MaxSegment, cfg.LLM.PromptMaxLen)
	}
	if cfg.Bus.Servers[0] != "nats://localhost:4222" {
		t.Fatalf("expected default server, got %v", cfg.Bus.Servers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOX_STT_MODE", "assemblyai")
	t.Setenv("VOX_STT_API_KEY", "aai-key")
	t.Setenv("VOX_LLM_MODE", "gemini")
	t.Setenv("VOX_LLM_API_KEY", "gm-key")
	t.Setenv("VOX_LLM_PROMPT_MAX_LEN", "2048")
	t.Setenv("VOX_TTS_MODE", "murf")
	t.Setenv("VOX_TTS_API_KEY", "murf-key")
	t.Setenv("VOX_TTS_VOICE", "en-GB-ruby")
	t.Setenv("VOX_TURN_LOG_RETENTION_MODE", "persistent")
	t.Setenv("VOX_TURN_LOG_RETENTION_DAYS", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.STT.Mode != "assemblyai" || cfg.STT.APIKey != "aai-key" {
		t.Fatalf("expected stt overrides, got %+v", cfg.STT)
	}
	if cfg.LLM.Mode != "gemini" || cfg.LLM.APIKey != "gm-key" || cfg.LLM.PromptMaxLen != 2048 {
		t.Fatalf("expected llm overrides, got %+v", cfg.LLM)
	}
	if cfg.TTS.Mode != "murf" || cfg.TTS.Voice != "en-GB-ruby" {
		t.Fatalf("expected tts overrides, got %+v", cfg.TTS)
	}
	if cfg.TurnLog.RetentionMode != "persistent" || cfg.TurnLog.RetentionDays != 7 {
		t.Fatalf("expected turn log overrides, got %+v", cfg.TurnLog)
	}
}

func TestValidateRejectsBadModes(t *testing.T) {
	t.Setenv("VOX_TTS_MODE", "shout")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown tts mode")
	}
}

func TestValidateRelayRequiresBus(t *testing.T) {
	t.Setenv("VOX_RELAY_ENABLED", "true")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error when relay enabled without bus")
	}
}
