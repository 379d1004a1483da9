package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/vbonduro/pantrychef/internal/cache"
	"github.com/vbonduro/pantrychef/internal/config"
	"github.com/vbonduro/pantrychef/internal/db"
	"github.com/vbonduro/pantrychef/internal/detect"
	claudedetect "github.com/vbonduro/pantrychef/internal/detect/claude"
	"github.com/vbonduro/pantrychef/internal/detect/inference"
	ollamadetect "github.com/vbonduro/pantrychef/internal/detect/ollama"
	"github.com/vbonduro/pantrychef/internal/embedding"
	"github.com/vbonduro/pantrychef/internal/llm"
	"github.com/vbonduro/pantrychef/internal/prompt"
	"github.com/vbonduro/pantrychef/internal/recipe"
	"github.com/vbonduro/pantrychef/internal/vectorstore"
	"github.com/vbonduro/pantrychef/internal/vectorstore/postgres"
	"github.com/vbonduro/pantrychef/internal/vectorstore/sqlite"
)

// openCollection opens the configured vector backend and embedder. The
// returned cleanup func releases both and is never nil on success.
func openCollection(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*vectorstore.Collection, func(), error) {
	var (
		database *sql.DB
		backend  vectorstore.Backend
		err      error
	)
	switch cfg.VectorBackend {
	case "pgvector":
		database, err = db.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		backend = postgres.New(database)
	default:
		database, err = db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		backend = sqlite.New(database)
	}
	logger.Info("opened reference collection", "backend", cfg.VectorBackend)

	embedder, closeEmbedder, err := embedding.New(ctx, embedding.Config{
		Backend: cfg.EmbeddingBackend,
		Model:   cfg.EmbeddingModel,
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
	})
	if err != nil {
		closeWithLog(database, "database", logger)
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	cleanup := func() {
		if err := closeEmbedder(); err != nil {
			logger.Error("failed to close embedder", "error", err)
		}
		closeWithLog(database, "database", logger)
	}
	return vectorstore.NewCollection(backend, embedder, logger), cleanup, nil
}

// newDetector builds the configured detector backend. An unreachable
// inference service is reported but does not stop startup.
func newDetector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (detect.Detector, error) {
	switch cfg.DetectorBackend {
	case "claude":
		logger.Info("using Claude detector backend", "model", cfg.ClaudeModel)
		return claudedetect.NewDetector(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama detector backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollamadetect.NewDetector(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		var classes *detect.ClassNames
		if cfg.DetectorClassesFile != "" {
			var err error
			classes, err = detect.LoadClassNames(cfg.DetectorClassesFile)
			if err != nil {
				return nil, err
			}
		}
		d := inference.NewDetector(cfg.DetectorURL, cfg.DetectorModelPath, classes)
		if err := d.CheckHealth(ctx); err != nil {
			logger.Warn("inference service not reachable", "url", cfg.DetectorURL, "error", err)
		}
		logger.Info("using inference detector backend", "url", cfg.DetectorURL, "model", cfg.DetectorModelPath)
		return d, nil
	}
}

// detectorModelName is the model reported in /detect responses.
func detectorModelName(cfg *config.Config) string {
	switch cfg.DetectorBackend {
	case "claude":
		return cfg.ClaudeModel
	case "ollama":
		return cfg.OllamaModel
	default:
		return cfg.DetectorModelName
	}
}

// newGenerator wires the prompt builder, chat model and optional redis cache.
// A cache that cannot be reached at startup is skipped with a warning.
func newGenerator(ctx context.Context, cfg *config.Config, collection *vectorstore.Collection, logger *slog.Logger) (*recipe.Generator, func(), error) {
	model, closeModel, err := llm.New(ctx, llm.Config{
		Backend:     cfg.LLMBackend,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		BaseURL:     cfg.LLMBaseURL,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	logger.Info("using chat model", "backend", cfg.LLMBackend, "model", cfg.LLMModel)

	var opts []recipe.Option
	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		redisCache, err = cache.Dial(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warn("recipe cache disabled", "error", err)
		} else {
			logger.Info("recipe cache enabled", "ttl", cfg.CacheTTL)
			opts = append(opts, recipe.WithCache(redisCache))
		}
	}

	cleanup := func() {
		if err := closeModel(); err != nil {
			logger.Error("failed to close chat model", "error", err)
		}
		if redisCache != nil {
			closeWithLog(redisCache, "recipe cache", logger)
		}
	}
	builder := prompt.NewBuilder(collection, cfg.RetrievalK)
	return recipe.NewGenerator(builder, model, logger, opts...), cleanup, nil
}

func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
