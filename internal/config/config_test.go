package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.DetectorBackend)
	assert.NotEmpty(t, cfg.LLMBackend)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_BACKEND", "gemini")
	t.Setenv("DETECTOR_THRESHOLD", "not-a-number")

	cfg := Load()

	assert.Equal(t, "gemini-2.5-flash", cfg.LLMModel)
	assert.InDelta(t, 0.3, cfg.LLMTemperature, 1e-9)
	assert.InDelta(t, 0.4, cfg.DetectorThreshold, 1e-9)
	assert.InDelta(t, 0.5, cfg.ConfirmThreshold, 1e-9)
	assert.Equal(t, "yolov8-food", cfg.DetectorModelName)
	assert.Equal(t, 3, cfg.RetrievalK)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, "moondream", cfg.OllamaModel)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("DETECTOR_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("LLM_BACKEND", "openai")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("RETRIEVAL_K", "5")
	t.Setenv("CACHE_TTL", "1h")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "claude", cfg.DetectorBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	// An explicitly empty LLM_API_KEY wins over the provider fallback.
	assert.Equal(t, "", cfg.LLMAPIKey)
	assert.Equal(t, 5, cfg.RetrievalK)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLoadAPIKeyFallback(t *testing.T) {
	t.Setenv("LLM_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-claude")

	cfg := Load()

	assert.Equal(t, "sk-claude", cfg.LLMAPIKey)
}

func validConfig() *Config {
	return &Config{
		DetectorBackend:   "inference",
		LLMBackend:        "gemini",
		LLMAPIKey:         "key",
		LLMTemperature:    0.3,
		EmbeddingBackend:  "ollama",
		VectorBackend:     "sqlite",
		DetectorThreshold: 0.4,
		ConfirmThreshold:  0.5,
		RetrievalK:        3,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown detector", func(c *Config) { c.DetectorBackend = "yolo" }, "DETECTOR_BACKEND"},
		{"unknown llm", func(c *Config) { c.LLMBackend = "palm" }, "LLM_BACKEND"},
		{"unknown embedding", func(c *Config) { c.EmbeddingBackend = "chroma" }, "EMBEDDING_BACKEND"},
		{"unknown vector backend", func(c *Config) { c.VectorBackend = "chroma" }, "VECTOR_BACKEND"},
		{"pgvector without dsn", func(c *Config) { c.VectorBackend = "pgvector" }, "POSTGRES_DSN"},
		{"claude detector without key", func(c *Config) { c.DetectorBackend = "claude" }, "CLAUDE_API_KEY"},
		{"missing llm key", func(c *Config) { c.LLMAPIKey = "" }, "API key"},
		{"ollama detector", func(c *Config) { c.DetectorBackend = "ollama" }, ""},
		{"ollama needs no key", func(c *Config) { c.LLMBackend = "ollama"; c.LLMAPIKey = "" }, ""},
		{"temperature too high", func(c *Config) { c.LLMTemperature = 3 }, "LLM_TEMPERATURE"},
		{"threshold out of range", func(c *Config) { c.ConfirmThreshold = 1.5 }, "CONFIRM_THRESHOLD"},
		{"k not positive", func(c *Config) { c.RetrievalK = 0 }, "RETRIEVAL_K"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateStoreIgnoresModelSettings(t *testing.T) {
	cfg := validConfig()
	cfg.LLMAPIKey = ""
	cfg.DetectorBackend = "claude"

	require.NoError(t, cfg.ValidateStore())
	require.Error(t, cfg.Validate())

	cfg.VectorBackend = "pgvector"
	assert.ErrorContains(t, cfg.ValidateStore(), "POSTGRES_DSN")
}
