package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
)

var ErrResponseParse = errors.New("response parse error")

// IncompleteRecipeError reports a JSON object that lacks required recipe keys.
type IncompleteRecipeError struct {
	Missing []string
}

func (e *IncompleteRecipeError) Error() string {
	return fmt.Sprintf("recipe is missing required fields: %s", strings.Join(e.Missing, ", "))
}

func (e *IncompleteRecipeError) Unwrap() error { return ErrResponseParse }

// ExtractJSON returns the JSON object embedded in free-form model output: the
// span from the first '{' to the last '}'. Text around the object is ignored,
// but stray braces outside it make the span invalid and fail the extraction.
func ExtractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrResponseParse)
	}

	span := text[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, fmt.Errorf("%w: invalid JSON object in response", ErrResponseParse)
	}
	return json.RawMessage(span), nil
}

// ParseRecipe extracts and strictly decodes a generated recipe.
func ParseRecipe(text string) (*domain.GeneratedRecipe, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		RecipeText      *string                      `json:"recipe_text"`
		IngredientsList *[]domain.IngredientQuantity `json:"ingredients_list"`
		Metadata        *domain.RecipeMetadata       `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	var missing []string
	if decoded.RecipeText == nil {
		missing = append(missing, "recipe_text")
	}
	if decoded.IngredientsList == nil {
		missing = append(missing, "ingredients_list")
	}
	if decoded.Metadata == nil {
		missing = append(missing, "metadata")
	}
	if len(missing) > 0 {
		return nil, &IncompleteRecipeError{Missing: missing}
	}

	return &domain.GeneratedRecipe{
		RecipeText:      *decoded.RecipeText,
		IngredientsList: *decoded.IngredientsList,
		Metadata:        *decoded.Metadata,
	}, nil
}
