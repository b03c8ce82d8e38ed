package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/pcathey/trellis/internal/config"
	"github.com/pcathey/trellis/internal/errors"
	"github.com/pcathey/trellis/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /cards — list cards, most recently updated first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListCardsInput{
		Limit: parseIntParam(r, "limit", ops.DefaultListLimit),
	}

	result, err := ops.ListCards(r.Context(), h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Cards",
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Cards: result.Cards,
		Count: result.Count,
	})
}

// HandleSearch handles GET /cards/search — full-text search over prompts and
// responses.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query == "" {
		// If htmx targets #results (user cleared the search box), return just the results fragment
		if r.Header.Get("HX-Target") == "results" {
			h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
			return
		}
		h.renderer.renderPage(w, r, "search", data)
		return
	}

	input := ops.SearchCardsInput{
		Query: query,
		Limit: parseIntParam(r, "limit", ops.DefaultSearchLimit),
	}

	result, err := ops.SearchCards(r.Context(), h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.Hits = result.Hits

	// If htmx targets #results, render only the results fragment
	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
		return
	}

	h.renderer.renderPage(w, r, "search", data)
}

// HandleDetail handles GET /cards/{id} — view a card alongside its assembled
// context. The block listing comes from the same operation generation reads,
// so the page shows exactly what a regeneration would consume.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("card ID is required"))
		return
	}

	fetched, err := ops.FetchCard(r.Context(), h.db, h.cfg, ops.FetchCardInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	assembled, err := ops.Context(r.Context(), h.db, h.cfg, ops.ContextInput{CardID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   displayPrompt(fetched.Card.Prompt, fetched.Card.ID),
			Version: h.renderer.version,
			Nav:     "cards",
		},
		Card:         fetched.Card,
		Context:      assembled,
		ResponseHTML: renderMarkdown(fetched.Card.ResponseText()),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// displayPrompt returns a truncated prompt for page titles.
func displayPrompt(prompt, id string) string {
	if prompt == "" {
		return id
	}
	if len(prompt) > 60 {
		return prompt[:60] + "..."
	}
	return prompt
}
