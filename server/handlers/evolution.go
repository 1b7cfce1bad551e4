package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

type EvolutionHandler struct {
	store *store.Store
}

func NewEvolutionHandler(st *store.Store) *EvolutionHandler {
	return &EvolutionHandler{store: st}
}

// List handles GET /topics/{id}/evolution: the append-only history of
// strategy transitions for a topic, newest first.
func (h *EvolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.store.ListEvolutionEntries(r.Context(), topicID, limit, offset)
	if err != nil {
		respondDomainError(w, err, "failed to list evolution entries")
		return
	}

	if entries == nil {
		entries = []*domain.EvolutionEntry{}
	}

	respondJSON(w, map[string]any{"entries": entries}, http.StatusOK)
}
