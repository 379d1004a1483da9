package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

// Detector asks a local Ollama vision model to list the ingredients in a
// photo, through Ollama's OpenAI-compatible chat endpoint. Like the Claude
// backend it reports no boxes.
type Detector struct {
	client *openai.Client
	model  string
}

func NewDetector(host, model string) *Detector {
	baseURL := strings.TrimRight(host, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	config := openai.DefaultConfig("ollama")
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return &Detector{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (d *Detector) Detect(ctx context.Context, r io.Reader, mimeType string) ([]domain.Detection, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageData)

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		// go-openai drops a zero temperature from the request.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				{Type: openai.ChatMessagePartTypeText, Text: detect.Prompt},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("ollama returned no choices")
	}
	return detect.ParseResponse(resp.Choices[0].Message.Content), nil
}
