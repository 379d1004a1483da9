package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	_ "golang.org/x/image/webp"

	"github.com/vbonduro/pantrychef/internal/domain"
)

// Prompt asks a vision model for one detection per line.
const Prompt = `List every distinct food ingredient you can see in this photo.
Respond in plain text, one ingredient per line, format: label | confidence
where label is a short lowercase ingredient name and confidence is a number
between 0 and 1. Do not add any other text.`

var ErrImageDecode = errors.New("image decode error")

// Detector runs object detection over a single image. Results are returned
// as produced by the model; no thresholding is applied.
type Detector interface {
	Detect(ctx context.Context, r io.Reader, mimeType string) ([]domain.Detection, error)
}

// allowedImageTypes covers what net/http.DetectContentType can sniff. WebP is
// checked separately because the stdlib sniffer has no WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a RIFF container with "WEBP" at offset 8.
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// CheckImage sniffs data and decodes its header. It returns the MIME type of
// a readable jpeg, png, gif or webp image and ErrImageDecode otherwise.
func CheckImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrImageDecode)
	}

	mimeType := "image/webp"
	if !isWebP(data) {
		mimeType = http.DetectContentType(data)
		if !allowedImageTypes[mimeType] {
			return "", fmt.Errorf("%w: unsupported type %s", ErrImageDecode, mimeType)
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: image has no pixels", ErrImageDecode)
	}
	return mimeType, nil
}
