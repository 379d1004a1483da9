package vectorstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
)

var recordColumns = []string{"id", "title", "cuisine", "ingredients", "steps", "servings", "tags"}

// ReadRecords parses reference recipes from CSV with a header row. Column
// order is free and extra columns are ignored.
func ReadRecords(r io.Reader) ([]domain.ReferenceRecipe, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty record source", ErrDataLoad)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrDataLoad, err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range recordColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrDataLoad, col)
		}
	}

	records := make([]domain.ReferenceRecipe, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataLoad, err)
		}
		get := func(col string) string { return strings.TrimSpace(row[idx[col]]) }
		records = append(records, domain.ReferenceRecipe{
			ID:          get("id"),
			Title:       get("title"),
			Cuisine:     get("cuisine"),
			Ingredients: get("ingredients"),
			Steps:       get("steps"),
			Servings:    get("servings"),
			Tags:        get("tags"),
		})
	}
	return records, nil
}
