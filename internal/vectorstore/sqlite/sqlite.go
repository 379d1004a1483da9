package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/vbonduro/pantrychef/internal/vectorstore"
)

// Store keeps embeddings as little-endian float32 blobs and ranks them in
// process. It suits collections of a few thousand recipes.
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

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipes (id, document, title, cuisine, ingredients, tags, dims, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document    = excluded.document,
			title       = excluded.title,
			cuisine     = excluded.cuisine,
			ingredients = excluded.ingredients,
			tags        = excluded.tags,
			dims        = excluded.dims,
			embedding   = excluded.embedding,
			loaded_at   = datetime('now')
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("failed to close statement", "error", err)
		}
	}()

	for _, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", d.ID)
		}
		m := d.Metadata
		if _, err := stmt.ExecContext(ctx, d.ID, d.Text, m.Title, m.Cuisine, m.Ingredients, m.Tags,
			len(d.Embedding), encodeVector(d.Embedding)); err != nil {
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
		SELECT id, document, title, cuisine, ingredients, tags, dims, embedding FROM recipes
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	matches := make([]vectorstore.Match, 0)
	for rows.Next() {
		var (
			m    vectorstore.Match
			dims int
			blob []byte
		)
		if err := rows.Scan(&m.ID, &m.Text, &m.Metadata.Title, &m.Metadata.Cuisine,
			&m.Metadata.Ingredients, &m.Metadata.Tags, &dims, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		vec, err := decodeVector(blob, dims)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", m.ID, err)
		}
		m.Distance, err = vectorstore.CosineDistance(embedding, vec)
		if err != nil {
			return nil, fmt.Errorf("document %q: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
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

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte, dims int) ([]float32, error) {
	if len(buf) != 4*dims {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d", len(buf), 4*dims)
	}
	v := make([]float32, dims)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
