package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/pantrychef/internal/detect"
	"github.com/vbonduro/pantrychef/internal/domain"
)

// recipeGenerator is the subset of recipe.Generator that RecipeService requires.
type recipeGenerator interface {
	Generate(ctx context.Context, items []domain.Item, servings int, style string) (*domain.GeneratedRecipe, error)
}

// Thresholds are display values for the UI and the /detect meta block. They
// are never applied to detections.
type Thresholds struct {
	Detection float64
	Confirm   float64
}

type DetectMeta struct {
	Model     string  `json:"model"`
	Threshold float64 `json:"threshold"`
	ItemCount int     `json:"item_count"`
}

type DetectResult struct {
	Items []domain.Detection `json:"items"`
	Meta  DetectMeta         `json:"meta"`
}

type RecipeService struct {
	detector   detect.Detector
	generator  recipeGenerator
	modelName  string
	thresholds Thresholds
	logger     *slog.Logger
}

func NewRecipeService(
	detector detect.Detector,
	generator recipeGenerator,
	modelName string,
	thresholds Thresholds,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		detector:   detector,
		generator:  generator,
		modelName:  modelName,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Detect validates the image and runs the detector over it. Unreadable
// images fail with detect.ErrImageDecode before the detector is called.
func (s *RecipeService) Detect(ctx context.Context, imageData []byte) (*DetectResult, error) {
	mimeType, err := detect.CheckImage(imageData)
	if err != nil {
		return nil, err
	}

	detections, err := s.detector.Detect(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect ingredients: %w", err)
	}
	if detections == nil {
		detections = []domain.Detection{}
	}

	s.logger.Info("detection complete", "mime_type", mimeType, "items", len(detections))
	return &DetectResult{
		Items: detections,
		Meta: DetectMeta{
			Model:     s.modelName,
			Threshold: s.thresholds.Detection,
			ItemCount: len(detections),
		},
	}, nil
}

// Generate fills in the default servings and style, then generates a recipe.
// The request must already be validated.
func (s *RecipeService) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GeneratedRecipe, error) {
	return s.generator.Generate(ctx, req.Items, req.ServingsOrDefault(), req.StyleOrDefault())
}

func (s *RecipeService) ConfirmThreshold() float64 {
	return s.thresholds.Confirm
}
