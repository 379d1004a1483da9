package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
	"github.com/vbonduro/pantrychef/internal/llm"
)

type PromptBuilder interface {
	Build(ctx context.Context, items []domain.Item, servings int, style string) ([]llm.Message, error)
}

// Cache stores generated recipes by request key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*domain.GeneratedRecipe, bool, error)
	Set(ctx context.Context, key string, r *domain.GeneratedRecipe) error
}

type Generator struct {
	prompts PromptBuilder
	model   llm.ChatModel
	cache   Cache
	logger  *slog.Logger
}

type Option func(*Generator)

// WithCache enables recipe caching. Cache failures are logged and never fail
// a generation.
func WithCache(c Cache) Option {
	return func(g *Generator) { g.cache = c }
}

func NewGenerator(prompts PromptBuilder, model llm.ChatModel, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{prompts: prompts, model: model, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate makes one model call for the given ingredients and returns the
// decoded recipe. There are no retries.
func (g *Generator) Generate(ctx context.Context, items []domain.Item, servings int, style string) (*domain.GeneratedRecipe, error) {
	var key string
	if g.cache != nil {
		key = CacheKey(items, servings, style)
		cached, ok, err := g.cache.Get(ctx, key)
		switch {
		case err != nil:
			g.logger.Warn("recipe cache lookup failed", "error", err)
		case ok:
			g.logger.Info("recipe cache hit", "key", key)
			return cached, nil
		}
	}

	messages, err := g.prompts.Build(ctx, items, servings, style)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	text, err := g.model.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipe: %w", err)
	}
	g.logger.Debug("model response received", "chars", len(text))

	recipe, err := ParseRecipe(text)
	if err != nil {
		g.logger.Warn("unparseable model response", "error", err, "chars", len(text))
		return nil, err
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, recipe); err != nil {
			g.logger.Warn("recipe cache store failed", "error", err)
		}
	}

	g.logger.Info("recipe generated", "items", len(items), "servings", servings, "ingredients", len(recipe.IngredientsList))
	return recipe, nil
}

// CacheKey identifies a request by its labels in order, servings and
// case-folded style.
func CacheKey(items []domain.Item, servings int, style string) string {
	h := sha256.New()
	for _, it := range items {
		h.Write([]byte(it.Label))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	h.Write([]byte(strconv.Itoa(servings)))
	h.Write([]byte{0x1e})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(style))))
	return "recipe:" + hex.EncodeToString(h.Sum(nil))
}
