package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/pantrychef/internal/domain"
	"github.com/vbonduro/pantrychef/internal/recipe"
	"github.com/vbonduro/pantrychef/internal/service"
)

const (
	msgDetectFailed   = "Detection failed"
	msgGenerateFailed = "Recipe generation failed"
	msgNoIngredients  = "Please confirm or add at least one ingredient."
	msgNoFile         = "Please choose an image to upload."
)

var cuisineStyles = []string{"Indian", "Italian", "Chinese", "Mexican", "Continental"}

type indexPage struct {
	Error string
}

// candidateRow is one aggregated ingredient on the confirmation form.
// Rows scoring below the confirm threshold are only used when ticked.
type candidateRow struct {
	Index        int
	Label        string
	Score        float64
	Count        int
	NeedsConfirm bool
	Confirmed    bool
}

type confirmPage struct {
	Rows      []candidateRow
	Meta      *service.DetectMeta
	Threshold float64
	Extras    string
	Servings  int
	Style     string
	Styles    []string
	Error     string
}

type recipePage struct {
	Items    []domain.ConfirmedIngredient
	Servings int
	Style    string
	Recipe   *domain.GeneratedRecipe
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderIndex(w, indexPage{})
}

func (s *Server) handleUIDetect(w http.ResponseWriter, r *http.Request) {
	imageData, _, err := s.readUpload(r)
	if err != nil {
		s.renderIndex(w, indexPage{Error: msgNoFile})
		return
	}

	result, err := s.service.Detect(r.Context(), imageData)
	if err != nil {
		s.logger.Error("ui detect failed", "request_id", requestID(r.Context()), "error", err)
		s.renderIndex(w, indexPage{Error: msgDetectFailed})
		return
	}

	threshold := s.service.ConfirmThreshold()
	candidates := recipe.Aggregate(result.Items)
	rows := make([]candidateRow, len(candidates))
	for i, c := range candidates {
		rows[i] = candidateRow{
			Index:        i,
			Label:        c.Label,
			Score:        c.Score,
			Count:        c.Count,
			NeedsConfirm: c.Score < threshold,
		}
	}

	s.renderConfirm(w, confirmPage{
		Rows:      rows,
		Meta:      &result.Meta,
		Threshold: threshold,
		Servings:  domain.DefaultServings,
		Style:     domain.DefaultStyle,
		Styles:    cuisineStyles,
	})
}

func (s *Server) handleUIGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	threshold := s.service.ConfirmThreshold()
	page := confirmPage{
		Rows:      parseCandidateRows(r, threshold),
		Threshold: threshold,
		Extras:    r.PostFormValue("extras"),
		Servings:  domain.DefaultServings,
		Style:     r.PostFormValue("style"),
		Styles:    cuisineStyles,
	}
	if n, err := strconv.Atoi(r.PostFormValue("servings")); err == nil {
		page.Servings = n
	}

	items := confirmedIngredients(page.Rows)
	items = append(items, recipe.ParseExtras(page.Extras)...)
	if len(items) == 0 {
		page.Error = msgNoIngredients
		s.renderConfirm(w, page)
		return
	}

	servings := page.Servings
	req := domain.GenerateRequest{Servings: &servings, Style: page.Style}
	for _, it := range items {
		req.Items = append(req.Items, domain.Item{Label: it.Label})
	}
	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("ui generate rejected", "request_id", requestID(r.Context()), "error", validationDetail(err))
		page.Error = msgGenerateFailed
		s.renderConfirm(w, page)
		return
	}

	generated, err := s.service.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("ui generate failed", "request_id", requestID(r.Context()), "error", err)
		page.Error = msgGenerateFailed
		s.renderConfirm(w, page)
		return
	}

	data := recipePage{Items: items, Servings: servings, Style: req.StyleOrDefault(), Recipe: generated}
	if err := s.renderPage(w, data, "base.html", "pages/recipe.html"); err != nil {
		s.logger.Error("render recipe failed", "error", err)
	}
}

// maxCandidateRows caps the row count a confirmation form may claim.
const maxCandidateRows = 200

// parseCandidateRows reads back the rows posted by the confirmation form.
// Whether a row needs confirming is recomputed from its score.
func parseCandidateRows(r *http.Request, threshold float64) []candidateRow {
	n, err := strconv.Atoi(r.PostFormValue("n"))
	if err != nil || n < 0 {
		return nil
	}
	n = min(n, maxCandidateRows)
	rows := make([]candidateRow, 0, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		score, _ := strconv.ParseFloat(r.PostFormValue("score_"+idx), 64)
		count, _ := strconv.Atoi(r.PostFormValue("count_" + idx))
		rows = append(rows, candidateRow{
			Index:        i,
			Label:        r.PostFormValue("label_" + idx),
			Score:        score,
			Count:        count,
			NeedsConfirm: score < threshold,
			Confirmed:    r.PostFormValue("confirm_"+idx) != "",
		})
	}
	return rows
}

func confirmedIngredients(rows []candidateRow) []domain.ConfirmedIngredient {
	items := make([]domain.ConfirmedIngredient, 0, len(rows))
	for _, row := range rows {
		if row.NeedsConfirm && !row.Confirmed {
			continue
		}
		label := strings.TrimSpace(row.Label)
		if label == "" {
			continue
		}
		items = append(items, domain.ConfirmedIngredient{Label: label, Score: row.Score})
	}
	return items
}

func (s *Server) renderIndex(w http.ResponseWriter, data indexPage) {
	if err := s.renderPage(w, data, "base.html", "pages/index.html"); err != nil {
		s.logger.Error("render index failed", "error", err)
	}
}

func (s *Server) renderConfirm(w http.ResponseWriter, data confirmPage) {
	if err := s.renderPage(w, data, "base.html", "pages/confirm.html"); err != nil {
		s.logger.Error("render confirm failed", "error", err)
	}
}
