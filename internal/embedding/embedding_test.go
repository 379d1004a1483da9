package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEmbeddingsServer(t *testing.T, gotModel *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		if gotModel != nil {
			*gotModel = req.Model
		}

		// Reply out of order so the embedder has to honour the index field.
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(i), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
}

func TestOpenAIEmbedder(t *testing.T) {
	var model string
	server := fakeEmbeddingsServer(t, &model)
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", "all-minilm", server.URL+"/v1")
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, "all-minilm", model)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}, {2, 1}}, vecs)
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	e := NewOpenAIEmbedder("sk-test", "all-minilm", "http://127.0.0.1:1")
	vecs, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestOpenAIEmbedderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("sk-test", "missing", server.URL)
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestNewOllamaAppendsV1(t *testing.T) {
	var model string
	server := fakeEmbeddingsServer(t, &model)
	defer server.Close()

	e, closeFn, err := New(context.Background(), Config{Backend: "ollama", BaseURL: server.URL})
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeFn()) }()

	_, err = e.Embed(context.Background(), []string{"onion"})
	require.NoError(t, err)
	assert.Equal(t, defaultOllamaModel, model)
}

func TestNewUnknownBackend(t *testing.T) {
	_, _, err := New(context.Background(), Config{Backend: "chroma"})
	assert.Error(t, err)
}
