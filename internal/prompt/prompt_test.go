package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/pantrychef/internal/domain"
	"github.com/vbonduro/pantrychef/internal/llm"
	"github.com/vbonduro/pantrychef/internal/vectorstore"
)

type stubRetriever struct {
	docs  []string
	err   error
	gotQ  string
	gotK  int
	calls int
}

func (s *stubRetriever) Query(_ context.Context, text string, k int) (*vectorstore.QueryResult, error) {
	s.calls++
	s.gotQ, s.gotK = text, k
	if s.err != nil {
		return nil, s.err
	}
	docs := s.docs
	if docs == nil {
		docs = []string{}
	}
	return &vectorstore.QueryResult{Documents: docs}, nil
}

func items(labels ...string) []domain.Item {
	out := make([]domain.Item, len(labels))
	for i, l := range labels {
		out[i] = domain.Item{Label: l}
	}
	return out
}

func TestBuildOnionTomato(t *testing.T) {
	r := &stubRetriever{docs: []string{"Title: Onion Tomato Curry", "Title: Tomato Rice"}}
	b := NewBuilder(r, 0)

	msgs, err := b.Build(context.Background(), items("onion", "tomato"), 2, "Indian")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "generate exactly 3 dishes")

	assert.Equal(t, llm.RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "onion, tomato")
	assert.Contains(t, msgs[1].Content, "Servings: 2")
	assert.Contains(t, msgs[1].Content, "Cuisine style: Indian")
	assert.Contains(t, msgs[1].Content, "Title: Onion Tomato Curry\n\n---\n\nTitle: Tomato Rice")

	assert.Equal(t, "onion, tomato", r.gotQ)
	assert.Equal(t, vectorstore.DefaultK, r.gotK)
}

func TestBuildKeepsOrderAndDuplicates(t *testing.T) {
	r := &stubRetriever{}
	b := NewBuilder(r, 5)

	msgs, err := b.Build(context.Background(), items("Tomato", "onion", "tomato"), 4, "Italian")
	require.NoError(t, err)

	assert.Contains(t, msgs[1].Content, "Tomato, onion, tomato")
	assert.Equal(t, 5, r.gotK)
}

func TestBuildNoReferences(t *testing.T) {
	b := NewBuilder(&stubRetriever{}, 3)

	msgs, err := b.Build(context.Background(), items("rice"), 2, "Chinese")
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, noReferences)
}

func TestBuildEmptyStyle(t *testing.T) {
	b := NewBuilder(&stubRetriever{}, 3)

	msgs, err := b.Build(context.Background(), items("rice"), 2, "  ")
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "Cuisine style: any\n")
}

func TestBuildEveryLabelPresent(t *testing.T) {
	cases := [][]string{
		{"onion"},
		{"green chilli", "coriander", "paneer"},
		{"egg", "egg", "bread"},
	}
	for _, labels := range cases {
		t.Run(strings.Join(labels, "+"), func(t *testing.T) {
			msgs, err := NewBuilder(&stubRetriever{}, 3).Build(context.Background(), items(labels...), 3, "Mexican")
			require.NoError(t, err)
			assert.Contains(t, msgs[1].Content, strings.Join(labels, ", "))
			for _, l := range labels {
				assert.Contains(t, msgs[1].Content, l)
			}
		})
	}
}

func TestBuildRetrieverError(t *testing.T) {
	b := NewBuilder(&stubRetriever{err: errors.New("collection unavailable")}, 3)

	_, err := b.Build(context.Background(), items("rice"), 2, "Indian")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection unavailable")
}
