package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL string `json:"url"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "c1",
		"object": "chat.completion",
		"model":  "moondream",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func TestDetect(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, "moondream", req.Model)
		assert.Less(t, req.Temperature, 1e-6)
		if assert.Len(t, req.Messages, 1) && assert.Len(t, req.Messages[0].Content, 2) {
			parts := req.Messages[0].Content
			assert.Equal(t, "image_url", parts[0].Type)
			assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(image), parts[0].ImageURL.URL)
			assert.Equal(t, "text", parts[1].Type)
			assert.Equal(t, detect.Prompt, parts[1].Text)
		}

		chatReply(w, "Onion | 0.9\nTomato | 75%")
	}))
	defer server.Close()

	d := NewDetector(server.URL+"/", "moondream")
	got, err := d.Detect(context.Background(), bytes.NewReader(image), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, []domain.Detection{
		{Label: "onion", Score: 0.9},
		{Label: "tomato", Score: 0.75},
	}, got)
}

func TestDetectKeepsV1Suffix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		chatReply(w, "Rice | 0.8")
	}))
	defer server.Close()

	got, err := NewDetector(server.URL+"/v1", "moondream").Detect(context.Background(), bytes.NewReader([]byte{1}), "image/png")

	require.NoError(t, err)
	assert.Equal(t, []domain.Detection{{Label: "rice", Score: 0.8}}, got)
}

func TestDetectServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model \"moondream\" not found","type":"api_error"}}`))
	}))
	defer server.Close()

	_, err := NewDetector(server.URL, "moondream").Detect(context.Background(), bytes.NewReader([]byte{1}), "image/png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestDetectNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewDetector(server.URL, "moondream").Detect(context.Background(), bytes.NewReader([]byte{1}), "image/png")
	assert.ErrorContains(t, err, "no choices")
}

func TestDetectNetworkError(t *testing.T) {
	_, err := NewDetector("http://127.0.0.1:1", "moondream").Detect(context.Background(), bytes.NewReader([]byte{1}), "image/png")
	assert.Error(t, err)
}

func TestDetectReadError(t *testing.T) {
	_, err := NewDetector("http://127.0.0.1:1", "moondream").Detect(context.Background(), failingReader{}, "image/png")
	assert.ErrorContains(t, err, "failed to read image")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
