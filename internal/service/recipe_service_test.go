package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

// stubDetector is a minimal detect.Detector for tests.
type stubDetector struct {
	detections []domain.Detection
	err        error
	calls      int
	gotMIME    string
}

func (s *stubDetector) Detect(_ context.Context, r io.Reader, mimeType string) ([]domain.Detection, error) {
	s.calls++
	s.gotMIME = mimeType
	_, _ = io.ReadAll(r)
	return s.detections, s.err
}

type stubGenerator struct {
	recipe   *domain.GeneratedRecipe
	err      error
	items    []domain.Item
	servings int
	style    string
}

func (s *stubGenerator) Generate(_ context.Context, items []domain.Item, servings int, style string) (*domain.GeneratedRecipe, error) {
	s.items, s.servings, s.style = items, servings, style
	return s.recipe, s.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newTestService(det *stubDetector, gen *stubGenerator) *RecipeService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRecipeService(det, gen, "yolov8-food", Thresholds{Detection: 0.4, Confirm: 0.5}, logger)
}

func TestDetect(t *testing.T) {
	det := &stubDetector{detections: []domain.Detection{
		{Label: "onion", Score: 0.9, X1: 1, Y1: 2, X2: 3, Y2: 4},
		{Label: "tomato", Score: 0.3},
	}}
	svc := newTestService(det, &stubGenerator{})

	res, err := svc.Detect(context.Background(), pngBytes(t))
	require.NoError(t, err)

	assert.Equal(t, "image/png", det.gotMIME)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, DetectMeta{Model: "yolov8-food", Threshold: 0.4, ItemCount: 2}, res.Meta)
}

func TestDetectNothingFound(t *testing.T) {
	svc := newTestService(&stubDetector{}, &stubGenerator{})

	res, err := svc.Detect(context.Background(), pngBytes(t))
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0, res.Meta.ItemCount)
}

func TestDetectBadImage(t *testing.T) {
	det := &stubDetector{}
	svc := newTestService(det, &stubGenerator{})

	_, err := svc.Detect(context.Background(), []byte("not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, detect.ErrImageDecode))
	assert.Equal(t, 0, det.calls)
}

func TestDetectDetectorError(t *testing.T) {
	svc := newTestService(&stubDetector{err: errors.New("inference service down")}, &stubGenerator{})

	_, err := svc.Detect(context.Background(), pngBytes(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inference service down")
}

func TestGenerateDefaults(t *testing.T) {
	gen := &stubGenerator{recipe: &domain.GeneratedRecipe{RecipeText: "x"}}
	svc := newTestService(&stubDetector{}, gen)

	got, err := svc.Generate(context.Background(), domain.GenerateRequest{Items: []domain.Item{{Label: "onion"}}})
	require.NoError(t, err)
	assert.Equal(t, "x", got.RecipeText)
	assert.Equal(t, 2, gen.servings)
	assert.Equal(t, "Indian", gen.style)
}

func TestGenerateExplicitValues(t *testing.T) {
	gen := &stubGenerator{recipe: &domain.GeneratedRecipe{}}
	svc := newTestService(&stubDetector{}, gen)
	servings := 6

	_, err := svc.Generate(context.Background(), domain.GenerateRequest{
		Items:    []domain.Item{{Label: "rice"}, {Label: "rice"}},
		Servings: &servings,
		Style:    "Chinese",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, gen.servings)
	assert.Equal(t, "Chinese", gen.style)
	assert.Len(t, gen.items, 2)
}

func TestConfirmThreshold(t *testing.T) {
	svc := newTestService(&stubDetector{}, &stubGenerator{})
	assert.InDelta(t, 0.5, svc.ConfirmThreshold(), 1e-9)
}
