package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

// Detector forwards images to an external YOLO inference service.
type Detector struct {
	url     string
	model   string
	classes *detect.ClassNames
	client  *http.Client
}

func NewDetector(inferenceURL, modelPath string, classes *detect.ClassNames) *Detector {
	return &Detector{
		url:     inferenceURL,
		model:   modelPath,
		classes: classes,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type response struct {
	Detections []struct {
		ClassID    *int       `json:"class_id"`
		Label      string     `json:"label"`
		Confidence float64    `json:"confidence"`
		Box        [4]float64 `json:"box"`
	} `json:"detections"`
}

func (d *Detector) Detect(ctx context.Context, r io.Reader, mimeType string) ([]domain.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image"+extension(mimeType))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.WriteField("model", d.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call inference service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close inference response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, errBody)
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	detections := make([]domain.Detection, 0, len(result.Detections))
	for _, det := range result.Detections {
		label := det.Label
		if label == "" {
			id := -1
			if det.ClassID != nil {
				id = *det.ClassID
			}
			label = d.classes.Name(id)
		}
		detections = append(detections, domain.Detection{
			Label: label,
			Score: det.Confidence,
			X1:    det.Box[0],
			Y1:    det.Box[1],
			X2:    det.Box[2],
			Y2:    det.Box[3],
		})
	}
	return detections, nil
}

// CheckHealth probes the /health endpoint next to the predict URL.
func (d *Detector) CheckHealth(ctx context.Context) error {
	u, err := url.Parse(d.url)
	if err != nil {
		return fmt.Errorf("invalid inference url: %w", err)
	}
	u.Path = path.Join(path.Dir(u.Path), "health")
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("inference service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
