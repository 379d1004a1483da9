package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "headings and steps",
			src:      "## Dish 1: Dal Tadka\n1. Rinse the dal.\n2. Simmer.",
			contains: []string{"<h2>Dish 1: Dal Tadka</h2>", "<ol>", "<li>Rinse the dal.</li>"},
		},
		{
			name:     "emphasis",
			src:      "**Cook time:** 30 min",
			contains: []string{"<strong>Cook time:</strong> 30 min"},
		},
		{
			name:     "line breaks kept",
			src:      "Name: Jeera Rice\nServings: 2",
			contains: []string{"Name: Jeera Rice<br>"},
		},
		{
			name:     "raw html dropped",
			src:      "<script>alert(1)</script>\n\nStir <b onclick=\"x()\">well</b>.",
			excludes: []string{"<script>", "onclick"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderMarkdown(tt.src)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, string(got), want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, string(got), bad)
			}
		})
	}
}
