package detect

import (
	"strconv"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
)

// ParseResponse parses vision model output in the format: label | confidence
// One detection per line.
func ParseResponse(raw string) []domain.Detection {
	detections := make([]domain.Detection, 0)
	for _, line := range strings.Split(raw, "\n") {
		if d := ParseLine(line); d != nil {
			detections = append(detections, *d)
		}
	}
	return detections
}

// ParseLine parses a single "label | confidence" line. It returns nil for
// blank lines, preamble and lines without a pipe. A missing or unreadable
// confidence becomes 1.0; out of range values are clamped to [0, 1].
func ParseLine(line string) *domain.Detection {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}

	parts := strings.SplitN(line, "|", 3)
	label := strings.ToLower(strings.TrimSpace(parts[0]))
	if label == "" || label == "label" {
		return nil
	}

	score := 1.0
	if raw := strings.TrimSpace(parts[1]); raw != "" {
		if strings.HasSuffix(raw, "%") {
			if f, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64); err == nil {
				score = f / 100
			}
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			score = f
		}
	}
	score = max(0, min(1, score))

	return &domain.Detection{Label: label, Score: score}
}
