package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration

	ClientOrigin string

	BlobUploadURL string
	BlobUploadKey string

	AssistantID        string
	AssistantName      string
	AssistantAvatarURL string

	OpenAIAPIKey            string
	OpenAIBaseURL           string
	AssistantModel          string
	AssistantFallbackModels []string
	AssistantSystemPrompt   string
	AssistantTemperature    float64
	AssistantMaxTokens      int
	AssistantHistoryLimit   int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":5000"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "duet"),
		DatabaseURL:        trimmedEnv("DATABASE_URL"),
		JWTSecret:          trimmedEnv("JWT_SECRET"),
		ClientOrigin:       envOrDefault("CLIENT_ORIGIN", "http://localhost:5173"),
		BlobUploadURL:      trimmedEnv("BLOB_UPLOAD_URL"),
		BlobUploadKey:      trimmedEnv("BLOB_UPLOAD_KEY"),
		AssistantID:        trimmedEnv("ASSISTANT_ID"),
		AssistantName:      envOrDefault("ASSISTANT_NAME", "AI Assistant"),
		AssistantAvatarURL: trimmedEnv("ASSISTANT_AVATAR_URL"),
		OpenAIAPIKey:       trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:      trimmedEnv("OPENAI_BASE_URL"),
		AssistantModel:     envOrDefault("ASSISTANT_MODEL", "gpt-4o-mini"),
		AssistantSystemPrompt: envOrDefault("ASSISTANT_SYSTEM_PROMPT",
			"You are a friendly and helpful chat assistant. Keep replies short and conversational."),
		AssistantTemperature:  0.7,
		AssistantMaxTokens:    512,
		AssistantHistoryLimit: 20,
		ShutdownTimeout:       15 * time.Second,
		TokenTTL:              7 * 24 * time.Hour,
	}
	cfg.AssistantFallbackModels = splitList(envOrDefault("ASSISTANT_FALLBACK_MODELS",
		"gpt-4o-mini,gpt-4o,gpt-4.1-mini,gpt-3.5-turbo"))

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL, err = durationFromEnv("APP_TOKEN_TTL", cfg.TokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AssistantTemperature, err = floatFromEnv("ASSISTANT_TEMPERATURE", cfg.AssistantTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AssistantMaxTokens, err = intFromEnv("ASSISTANT_MAX_TOKENS", cfg.AssistantMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.AssistantHistoryLimit, err = intFromEnv("ASSISTANT_HISTORY_LIMIT", cfg.AssistantHistoryLimit)
	if err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TokenTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_TOKEN_TTL must be at least 1m")
	}
	if cfg.AssistantTemperature < 0 || cfg.AssistantTemperature > 2 {
		return Config{}, fmt.Errorf("ASSISTANT_TEMPERATURE must be in [0, 2]")
	}
	if cfg.AssistantMaxTokens <= 0 {
		return Config{}, fmt.Errorf("ASSISTANT_MAX_TOKENS must be positive")
	}
	if cfg.AssistantHistoryLimit <= 0 {
		return Config{}, fmt.Errorf("ASSISTANT_HISTORY_LIMIT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
