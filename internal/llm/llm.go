package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// ChatModel sends a conversation to a language model and returns the text
// of its reply.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config is fixed at construction; every call uses the same sampling
// settings.
type Config struct {
	Backend     string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

const defaultOllamaURL = "http://localhost:11434/v1"

// New builds the chat model selected by cfg.Backend. The returned close func
// is never nil.
func New(ctx context.Context, cfg Config) (ChatModel, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(cfg.Backend) {
	case "openai":
		return NewOpenAIChat(cfg), noop, nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		cfg.BaseURL = baseURL
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}
		return NewOpenAIChat(cfg), noop, nil
	case "claude":
		return NewClaudeChat(cfg), noop, nil
	case "", "gemini":
		c, err := NewGeminiChat(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm backend: %s", cfg.Backend)
	}
}

// splitSystem separates system messages from the conversation. Multiple
// system messages are joined with a blank line.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
