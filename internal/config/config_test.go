package config

import "testing"

func TestLoadRequiresJWTSecret(t *testing.T) {
	setCoreEnvEmpty(t)

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should fail without JWT_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":5000" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":5000")
	}
	if cfg.AssistantHistoryLimit != 20 {
		t.Fatalf("AssistantHistoryLimit = %d, want 20", cfg.AssistantHistoryLimit)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("OpenAIAPIKey = %q, want empty default", cfg.OpenAIAPIKey)
	}
	if len(cfg.AssistantFallbackModels) == 0 {
		t.Fatalf("AssistantFallbackModels should have defaults")
	}
}

func TestLoadParsesFallbackModelList(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ASSISTANT_FALLBACK_MODELS", " m1, m2 ,,m3 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"m1", "m2", "m3"}
	if len(cfg.AssistantFallbackModels) != len(want) {
		t.Fatalf("fallback models = %v, want %v", cfg.AssistantFallbackModels, want)
	}
	for i, m := range want {
		if cfg.AssistantFallbackModels[i] != m {
			t.Fatalf("fallback models = %v, want %v", cfg.AssistantFallbackModels, want)
		}
	}
}

func TestLoadRejectsInvalidTemperature(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ASSISTANT_TEMPERATURE", "3.5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject out-of-range temperature")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_TOKEN_TTL",
		"DATABASE_URL",
		"JWT_SECRET",
		"CLIENT_ORIGIN",
		"BLOB_UPLOAD_URL",
		"BLOB_UPLOAD_KEY",
		"ASSISTANT_ID",
		"ASSISTANT_NAME",
		"ASSISTANT_AVATAR_URL",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"ASSISTANT_MODEL",
		"ASSISTANT_FALLBACK_MODELS",
		"ASSISTANT_SYSTEM_PROMPT",
		"ASSISTANT_TEMPERATURE",
		"ASSISTANT_MAX_TOKENS",
		"ASSISTANT_HISTORY_LIMIT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
