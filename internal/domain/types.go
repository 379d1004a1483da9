package domain

// Detection is one labelled box reported by the detector for a single image.
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
}

// Candidate groups detections sharing a lowercase label.
type Candidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Count int     `json:"count"`
}

type ConfirmedIngredient struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Item struct {
	Label string `json:"label" validate:"required,notblank"`
}

type GenerateRequest struct {
	Items    []Item `json:"items" validate:"required,min=1,dive"`
	Servings *int   `json:"servings,omitempty" validate:"omitempty,min=1,max=10"`
	Style    string `json:"style"`
}

const (
	DefaultServings = 2
	DefaultStyle    = "Indian"
)

// ServingsOrDefault returns the requested servings, or DefaultServings when unset.
func (r GenerateRequest) ServingsOrDefault() int {
	if r.Servings == nil {
		return DefaultServings
	}
	return *r.Servings
}

func (r GenerateRequest) StyleOrDefault() string {
	if r.Style == "" {
		return DefaultStyle
	}
	return r.Style
}

// ReferenceRecipe is one row of the reference recipe source.
type ReferenceRecipe struct {
	ID          string
	Title       string
	Cuisine     string
	Ingredients string
	Steps       string
	Servings    string
	Tags        string
}

type IngredientQuantity struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type RecipeMetadata struct {
	CookTime   string   `json:"cook_time,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Dietary    []string `json:"dietary,omitempty"`
}

type GeneratedRecipe struct {
	RecipeText      string               `json:"recipe_text"`
	IngredientsList []IngredientQuantity `json:"ingredients_list"`
	Metadata        RecipeMetadata       `json:"metadata"`
}
