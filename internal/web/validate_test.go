package web

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantrychef/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestValidateGenerateRequest(t *testing.T) {
	onion := []domain.Item{{Label: "onion"}}
	tests := []struct {
		name    string
		req     domain.GenerateRequest
		wantErr string
	}{
		{"defaults", domain.GenerateRequest{Items: onion}, ""},
		{"servings lower bound", domain.GenerateRequest{Items: onion, Servings: intPtr(1)}, ""},
		{"servings upper bound", domain.GenerateRequest{Items: onion, Servings: intPtr(10)}, ""},
		{"servings zero", domain.GenerateRequest{Items: onion, Servings: intPtr(0)}, "servings must be at least 1"},
		{"servings too many", domain.GenerateRequest{Items: onion, Servings: intPtr(11)}, "servings must be at most 10"},
		{"missing items", domain.GenerateRequest{}, "items must not be empty"},
		{"empty items", domain.GenerateRequest{Items: []domain.Item{}}, "items must contain at least 1 item(s)"},
		{"blank label", domain.GenerateRequest{Items: []domain.Item{{Label: "onion"}, {Label: "  "}}}, "items[1].label must not be empty"},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, validationDetail(err))
		})
	}
}

func TestValidationDetailPassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "boom", validationDetail(errors.New("boom")))
}
