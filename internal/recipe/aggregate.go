package recipe

import (
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
)

// ManualScore is the confidence given to ingredients typed in by the user.
const ManualScore = 1.0

// Aggregate groups detections by lowercase label in first-seen order. Each
// candidate carries the mean score and the number of detections merged.
func Aggregate(detections []domain.Detection) []domain.Candidate {
	candidates := make([]domain.Candidate, 0)
	index := make(map[string]int)
	sums := make([]float64, 0)

	for _, d := range detections {
		label := strings.ToLower(strings.TrimSpace(d.Label))
		if label == "" {
			continue
		}
		i, ok := index[label]
		if !ok {
			i = len(candidates)
			index[label] = i
			candidates = append(candidates, domain.Candidate{Label: label})
			sums = append(sums, 0)
		}
		sums[i] += d.Score
		candidates[i].Count++
	}

	for i := range candidates {
		candidates[i].Score = sums[i] / float64(candidates[i].Count)
	}
	return candidates
}

// ParseExtras splits a comma-separated list of manually entered ingredients.
func ParseExtras(input string) []domain.ConfirmedIngredient {
	extras := make([]domain.ConfirmedIngredient, 0)
	for _, part := range strings.Split(input, ",") {
		label := strings.ToLower(strings.TrimSpace(part))
		if label == "" {
			continue
		}
		extras = append(extras, domain.ConfirmedIngredient{Label: label, Score: ManualScore})
	}
	return extras
}
