package prompt

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/vbonduro/pantrychef/internal/domain"
	"github.com/vbonduro/pantrychef/internal/llm"
	"github.com/vbonduro/pantrychef/internal/vectorstore"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	systemPrompt = mustRead("templates/system.tmpl")
	userTemplate = template.Must(template.ParseFS(templatesFS, "templates/user.tmpl"))
)

const (
	referenceSeparator = "\n\n---\n\n"
	noReferences       = "No reference recipes found."
	anyStyle           = "any"
)

// Retriever finds reference recipes similar to a comma-separated ingredient list.
type Retriever interface {
	Query(ctx context.Context, text string, k int) (*vectorstore.QueryResult, error)
}

type Builder struct {
	retriever Retriever
	k         int
}

// NewBuilder returns a Builder that asks the retriever for k references.
// k <= 0 uses vectorstore.DefaultK.
func NewBuilder(retriever Retriever, k int) *Builder {
	if k <= 0 {
		k = vectorstore.DefaultK
	}
	return &Builder{retriever: retriever, k: k}
}

type userData struct {
	Ingredients string
	References  string
	Style       string
	Servings    int
}

// Build returns the system and user messages for one generation request.
// Labels are joined in input order; duplicates are kept.
func (b *Builder) Build(ctx context.Context, items []domain.Item, servings int, style string) ([]llm.Message, error) {
	ingredients := JoinLabels(items)

	res, err := b.retriever.Query(ctx, ingredients, b.k)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reference recipes: %w", err)
	}
	references := noReferences
	if len(res.Documents) > 0 {
		references = strings.Join(res.Documents, referenceSeparator)
	}

	if strings.TrimSpace(style) == "" {
		style = anyStyle
	}

	var user bytes.Buffer
	if err := userTemplate.Execute(&user, userData{
		Ingredients: ingredients,
		References:  references,
		Style:       style,
		Servings:    servings,
	}); err != nil {
		return nil, fmt.Errorf("failed to render user prompt: %w", err)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user.String()},
	}, nil
}

func JoinLabels(items []domain.Item) string {
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.Label
	}
	return strings.Join(labels, ", ")
}

func mustRead(name string) string {
	data, err := templatesFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
