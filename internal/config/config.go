package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Speech  SpeechConfig
	Storage StorageConfig
	History HistoryConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig(ai)
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Speech:  speech,
		Storage: loadStorageConfig(),
		History: history,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model provider used by the interview agent and
// the extraction pipeline.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
	// TimeoutSeconds bounds one agent or extraction invocation end to end,
	// including tool round-trips.
	TimeoutSeconds int
	// MaxSteps limits model/tool iterations within a single turn.
	MaxSteps int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the provider chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide MODEL_API_KEY + MODEL_NAME or access/secret key pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("MODEL_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("MODEL_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout := 60
	if override, err := parseOptionalIntEnv("MODEL_TIMEOUT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	maxSteps := 4
	if override, err := parseOptionalIntEnv("MODEL_MAX_STEPS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		maxSteps = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("MODEL_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("MODEL_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("MODEL_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("MODEL_NAME")),
		BaseURL:        getEnvOrDefault("MODEL_BASE_URL", ""),
		Region:         getEnvOrDefault("MODEL_REGION", ""),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		TimeoutSeconds: timeout,
		MaxSteps:       maxSteps,
	}, nil
}

// SpeechConfig describes the transcription and speech synthesis provider.
type SpeechConfig struct {
	APIKey         string
	BaseURL        string
	ASRModel       string
	TTSModel       string
	TTSVoice       string
	AudioDir       string
	TimeoutSeconds int
	Enabled        bool
}

func loadSpeechConfig(ai AIConfig) (SpeechConfig, error) {
	timeout := 30
	if override, err := parseOptionalIntEnv("SPEECH_TIMEOUT"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	apiKey := strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	if apiKey == "" {
		// Fall back to the model credentials when the provider serves both.
		apiKey = ai.APIKey
	}

	return SpeechConfig{
		APIKey:         apiKey,
		BaseURL:        getEnvOrDefault("SPEECH_BASE_URL", "https://api.openai.com/v1"),
		ASRModel:       getEnvOrDefault("SPEECH_ASR_MODEL", "whisper-1"),
		TTSModel:       getEnvOrDefault("SPEECH_TTS_MODEL", "tts-1"),
		TTSVoice:       getEnvOrDefault("SPEECH_TTS_VOICE", "shimmer"),
		AudioDir:       getEnvOrDefault("SPEECH_AUDIO_DIR", "static/audio"),
		TimeoutSeconds: timeout,
		Enabled:        apiKey != "",
	}, nil
}

// StorageConfig describes the durable message log location.
type StorageConfig struct {
	Path string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Path: getEnvOrDefault("DATABASE_PATH", "data/velofit.db"),
	}
}

// HistoryConfig bounds the in-memory session history cache.
type HistoryConfig struct {
	CacheSize int
}

func loadHistoryConfig() (HistoryConfig, error) {
	size := 256
	if override, err := parseOptionalIntEnv("HISTORY_CACHE_SIZE"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil && *override > 0 {
		size = *override
	}
	return HistoryConfig{CacheSize: size}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
