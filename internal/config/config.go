package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
	PrometheusBind string `yaml:"prometheus_bind"`
}

type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type TurnLogConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxSessions   int    `yaml:"max_sessions"`
}

type STTConfig struct {
	Mode    string `yaml:"mode"` // mock, assemblyai, exec
	APIKey  string `yaml:"api_key"`
	Command string `yaml:"command"`
}

type LLMConfig struct {
	Mode         string `yaml:"mode"` // mock, gemini, ollama, exec
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Endpoint     string `yaml:"endpoint"`
	Command      string `yaml:"command"`
	PromptMaxLen int    `yaml:"prompt_max_len"`
}

type TTSConfig struct {
	Mode       string `yaml:"mode"` // mock, murf, exec
	APIKey     string `yaml:"api_key"`
	Command    string `yaml:"command"`
	Voice      string `yaml:"voice"`
	Style      string `yaml:"style"`
	MaxSegment int    `yaml:"max_segment"`
}

type RelayConfig struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
	Channels   int  `yaml:"channels"`
}

type Config struct {
	RuntimeName string          `yaml:"runtime_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Bus         BusConfig       `yaml:"bus"`
	TurnLog     TurnLogConfig   `yaml:"turn_log"`
	STT         STTConfig       `yaml:"stt"`
	LLM         LLMConfig       `yaml:"llm"`
	TTS         TTSConfig       `yaml:"tts"`
	Relay       RelayConfig     `yaml:"relay"`
}

func Default() Config {
	return Config{
		RuntimeName: "vox-relay",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind: "0.0.0.0",
			Port: 8080,
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			OTLPInsecure:   true,
			PrometheusBind: ":9091",
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		TurnLog: TurnLogConfig{
			Path:          "./data/vox-turns.db",
			RetentionMode: "session",
			RetentionDays: 30,
			MaxSessions:   10000,
		},
		STT: STTConfig{
			Mode: "mock",
		},
		LLM: LLMConfig{
			Mode:         "mock",
			Model:        "gemini-2.5-pro",
			Endpoint:     "http://localhost:11434",
			PromptMaxLen: 3000,
		},
		TTS: TTSConfig{
			Mode:       "mock",
			Voice:      "en-US-natalie",
			Style:      "Promo",
			MaxSegment: 3000,
		},
		Relay: RelayConfig{
			Enabled:    false,
			SampleRate: 16000,
			Channels:   1,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "VOX_RUNTIME_NAME")
	overrideString(&cfg.Environment, "VOX_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "VOX_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "VOX_HTTP_PORT")
	overrideString(&cfg.Telemetry.LogLevel, "VOX_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "VOX_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "VOX_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.Telemetry.PrometheusBind, "VOX_TELEMETRY_PROMETHEUS_BIND")
	overrideBool(&cfg.Bus.Enabled, "VOX_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "VOX_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "VOX_BUS_PORT")
	overrideStringSlice(&cfg.Bus.Servers, "VOX_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "VOX_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "VOX_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "VOX_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "VOX_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "VOX_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.TurnLog.Path, "VOX_TURN_LOG_PATH")
	overrideString(&cfg.TurnLog.RetentionMode, "VOX_TURN_LOG_RETENTION_MODE")
	overrideInt(&cfg.TurnLog.RetentionDays, "VOX_TURN_LOG_RETENTION_DAYS")
	overrideInt(&cfg.TurnLog.MaxSessions, "VOX_TURN_LOG_MAX_SESSIONS")
	overrideString(&cfg.STT.Mode, "VOX_STT_MODE")
	overrideString(&cfg.STT.APIKey, "VOX_STT_API_KEY")
	overrideString(&cfg.STT.Command, "VOX_STT_COMMAND")
	overrideString(&cfg.LLM.Mode, "VOX_LLM_MODE")
	overrideString(&cfg.LLM.APIKey, "VOX_LLM_API_KEY")
	overrideString(&cfg.LLM.Model, "VOX_LLM_MODEL")
	overrideString(&cfg.LLM.Endpoint, "VOX_LLM_ENDPOINT")
	overrideString(&cfg.LLM.Command, "VOX_LLM_COMMAND")
	overrideInt(&cfg.LLM.PromptMaxLen, "VOX_LLM_PROMPT_MAX_LEN")
	overrideString(&cfg.TTS.Mode, "VOX_TTS_MODE")
	overrideString(&cfg.TTS.APIKey, "VOX_TTS_API_KEY")
	overrideString(&cfg.TTS.Command, "VOX_TTS_COMMAND")
	overrideString(&cfg.TTS.Voice, "VOX_TTS_VOICE")
	overrideString(&cfg.TTS.Style, "VOX_TTS_STYLE")
	overrideInt(&cfg.TTS.MaxSegment, "VOX_TTS_MAX_SEGMENT")
	overrideBool(&cfg.Relay.Enabled, "VOX_RELAY_ENABLED")
	overrideInt(&cfg.Relay.SampleRate, "VOX_RELAY_SAMPLE_RATE")
	overrideInt(&cfg.Relay.Channels, "VOX_RELAY_CHANNELS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.Telemetry.PrometheusBind == "" {
		return errors.New("telemetry.prometheus_bind must not be empty")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.TurnLog.Path == "" && cfg.TurnLog.RetentionMode != "ephemeral" {
		return errors.New("turn_log.path must not be empty")
	}
	switch cfg.TurnLog.RetentionMode {
	case "ephemeral", "session", "persistent":
	default:
		return errors.New("turn_log.retention_mode must be one of ephemeral|session|persistent")
	}
	if cfg.TurnLog.RetentionDays < 0 {
		return errors.New("turn_log.retention_days must be >= 0")
	}
	switch cfg.STT.Mode {
	case "mock", "assemblyai", "exec":
	default:
		return errors.New("stt.mode must be one of mock|assemblyai|exec")
	}
	if cfg.STT.Mode == "exec" && cfg.STT.Command == "" {
		return errors.New("stt.command must be set when mode=exec")
	}
	switch cfg.LLM.Mode {
	case "mock", "gemini", "ollama", "exec":
	default:
		return errors.New("llm.mode must be one of mock|gemini|ollama|exec")
	}
	if cfg.LLM.Mode == "ollama" && cfg.LLM.Endpoint == "" {
		return errors.New("llm.endpoint must be set when mode=ollama")
	}
	if cfg.LLM.Mode == "exec" && cfg.LLM.Command == "" {
		return errors.New("llm.command must be set when mode=exec")
	}
	if cfg.LLM.PromptMaxLen <= 0 {
		return errors.New("llm.prompt_max_len must be positive")
	}
	switch cfg.TTS.Mode {
	case "mock", "murf", "exec":
	default:
		return errors.New("tts.mode must be one of mock|murf|exec")
	}
	if cfg.TTS.Mode == "exec" && cfg.TTS.Command == "" {
		return errors.New("tts.command must be set when mode=exec")
	}
	if cfg.TTS.MaxSegment <= 0 {
		return errors.New("tts.max_segment must be positive")
	}
	if cfg.Relay.Enabled {
		if !cfg.Bus.Enabled {
			return errors.New("relay requires bus.enabled")
		}
		if cfg.Relay.SampleRate <= 0 {
			return errors.New("relay.sample_rate must be positive")
		}
		if cfg.Relay.Channels <= 0 {
			return errors.New("relay.channels must be positive")
		}
	}
	return nil
}
