package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

// maxTokens comfortably covers one short line per visible ingredient.
const maxTokens = 1024

// Detector asks a Claude vision model to list the ingredients in a photo.
// It reports labels and confidences only; boxes are zero.
type Detector struct {
	client *anthropic.Client
	model  string
}

func NewDetector(apiKey, model string, opts ...anthropic.ClientOption) *Detector {
	return &Detector{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (d *Detector) Detect(ctx context.Context, r io.Reader, mimeType string) ([]domain.Detection, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := d.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(d.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(detect.Prompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText && c.Text != nil {
			return detect.ParseResponse(*c.Text), nil
		}
	}
	return []domain.Detection{}, nil
}

// normaliseMIME maps browser MIME types to the values the Anthropic API
// accepts. Unknown types are sent as jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
