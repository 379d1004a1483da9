package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/vbonduro/pantrychef/internal/vectorstore"
)

// Store ranks documents inside postgres using the pgvector cosine operator.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, docs []vectorstore.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", d.ID)
		}
		m := d.Metadata
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (id, document, title, cuisine, ingredients, tags, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				document    = EXCLUDED.document,
				title       = EXCLUDED.title,
				cuisine     = EXCLUDED.cuisine,
				ingredients = EXCLUDED.ingredients,
				tags        = EXCLUDED.tags,
				embedding   = EXCLUDED.embedding,
				loaded_at   = now()
		`, d.ID, d.Text, m.Title, m.Cuisine, m.Ingredients, m.Tags, pgvector.NewVector(d.Embedding))
		if err != nil {
			return fmt.Errorf("failed to upsert document %q: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

func (s *Store) Nearest(ctx context.Context, embedding []float32, k int) ([]vectorstore.Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, title, cuisine, ingredients, tags, embedding <=> $1 AS distance
		FROM recipes
		ORDER BY distance, id
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	matches := make([]vectorstore.Match, 0, k)
	for rows.Next() {
		var m vectorstore.Match
		var distance sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Text, &m.Metadata.Title, &m.Metadata.Cuisine,
			&m.Metadata.Ingredients, &m.Metadata.Tags, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		// pgvector yields NULL (NaN on older versions) for zero vectors.
		m.Distance = 1
		if distance.Valid && !math.IsNaN(distance.Float64) {
			m.Distance = distance.Float64
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return matches, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
