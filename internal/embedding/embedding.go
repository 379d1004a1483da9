package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	Backend string
	Model   string
	BaseURL string
	APIKey  string
}

const (
	defaultOllamaURL   = "http://localhost:11434/v1"
	defaultOllamaModel = "all-minilm"
	defaultOpenAIModel = "text-embedding-3-small"
	defaultGeminiModel = "text-embedding-004"
)

// New builds the embedder selected by cfg.Backend. The returned close func
// releases any client resources and is never nil.
func New(ctx context.Context, cfg Config) (Embedder, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Backend) {
	case "", "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIEmbedder(apiKey, orDefault(cfg.Model, defaultOllamaModel), baseURL), noop, nil
	case "openai":
		return NewOpenAIEmbedder(cfg.APIKey, orDefault(cfg.Model, defaultOpenAIModel), cfg.BaseURL), noop, nil
	case "gemini":
		e, err := NewGeminiEmbedder(ctx, cfg.APIKey, orDefault(cfg.Model, defaultGeminiModel))
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported embedding backend: %s", cfg.Backend)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
