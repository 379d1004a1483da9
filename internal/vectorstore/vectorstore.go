package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
	"github.com/vbonduro/pantrychef/internal/embedding"
)

// DefaultK is the number of neighbours returned when a query asks for k <= 0.
const DefaultK = 3

const embedBatchSize = 64

var ErrDataLoad = errors.New("data load error")

// DataLoadError identifies the record that stopped a load.
type DataLoadError struct {
	Index   int
	ID      string
	Missing []string
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("record %d (id %q) is missing required fields: %s", e.Index, e.ID, strings.Join(e.Missing, ", "))
}

func (e *DataLoadError) Unwrap() error { return ErrDataLoad }

type Metadata struct {
	Title       string `json:"title"`
	Cuisine     string `json:"cuisine"`
	Ingredients string `json:"ingredients"`
	Tags        string `json:"tags"`
}

// Document is a stored reference recipe with its embedding.
type Document struct {
	ID        string
	Text      string
	Metadata  Metadata
	Embedding []float32
}

type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// Backend persists documents and answers nearest-neighbour lookups. Nearest
// returns at most k matches ordered by increasing cosine distance.
type Backend interface {
	Upsert(ctx context.Context, docs []Document) error
	Nearest(ctx context.Context, embedding []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}

// QueryResult holds parallel slices, most similar first.
type QueryResult struct {
	IDs       []string
	Documents []string
	Metadatas []Metadata
	Distances []float64
}

// Collection is the reference recipe collection. It is created once at
// startup and handed to whatever needs retrieval.
type Collection struct {
	backend  Backend
	embedder embedding.Embedder
	logger   *slog.Logger
}

func NewCollection(backend Backend, embedder embedding.Embedder, logger *slog.Logger) *Collection {
	return &Collection{backend: backend, embedder: embedder, logger: logger}
}

// Load validates every record, embeds the rendered documents and upserts them
// keyed by id. A single invalid record fails the load before anything is
// written.
func (c *Collection) Load(ctx context.Context, records []domain.ReferenceRecipe) (int, error) {
	for i, rec := range records {
		if missing := missingFields(rec); len(missing) > 0 {
			return 0, &DataLoadError{Index: i, ID: rec.ID, Missing: missing}
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	docs := make([]Document, len(records))
	for i, rec := range records {
		docs[i] = Document{
			ID:   rec.ID,
			Text: BuildDocument(rec),
			Metadata: Metadata{
				Title:       rec.Title,
				Cuisine:     rec.Cuisine,
				Ingredients: rec.Ingredients,
				Tags:        rec.Tags,
			},
		}
	}

	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, d := range docs[start:end] {
			texts = append(texts, d.Text)
		}
		vecs, err := c.embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(vecs) != len(texts) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(texts))
		}
		for i, v := range vecs {
			docs[start+i].Embedding = v
		}
		c.logger.Debug("embedded batch", "from", start, "to", end)
	}

	if err := c.backend.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("failed to store documents: %w", err)
	}
	c.logger.Info("loaded reference recipes", "count", len(docs))
	return len(docs), nil
}

// Query returns the k stored documents nearest to text. An empty collection
// yields empty slices and no error.
func (c *Collection) Query(ctx context.Context, text string, k int) (*QueryResult, error) {
	if k <= 0 {
		k = DefaultK
	}
	result := &QueryResult{
		IDs:       []string{},
		Documents: []string{},
		Metadatas: []Metadata{},
		Distances: []float64{},
	}

	n, err := c.backend.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if n == 0 {
		return result, nil
	}

	vecs, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vecs))
	}

	matches, err := c.backend.Nearest(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	for _, m := range matches {
		result.IDs = append(result.IDs, m.ID)
		result.Documents = append(result.Documents, m.Text)
		result.Metadatas = append(result.Metadatas, m.Metadata)
		result.Distances = append(result.Distances, m.Distance)
	}
	return result, nil
}

func (c *Collection) Count(ctx context.Context) (int, error) {
	n, err := c.backend.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// BuildDocument renders the text that is embedded and later shown to the
// model as a reference.
func BuildDocument(r domain.ReferenceRecipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Cuisine: %s\n", r.Cuisine)
	fmt.Fprintf(&b, "Ingredients: %s\n", r.Ingredients)
	fmt.Fprintf(&b, "Steps: %s\n", r.Steps)
	fmt.Fprintf(&b, "Serving Size: %s\n", r.Servings)
	fmt.Fprintf(&b, "Tags: %s", r.Tags)
	return b.String()
}

func missingFields(r domain.ReferenceRecipe) []string {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"id", r.ID},
		{"title", r.Title},
		{"cuisine", r.Cuisine},
		{"ingredients", r.Ingredients},
		{"steps", r.Steps},
		{"servings", r.Servings},
		{"tags", r.Tags},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
