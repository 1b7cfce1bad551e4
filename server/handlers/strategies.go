package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/services"
)

type StrategyHandler struct {
	strategySvc *services.StrategyService
	notifier    Notifier
}

func NewStrategyHandler(strategySvc *services.StrategyService, notifier Notifier) *StrategyHandler {
	return &StrategyHandler{strategySvc: strategySvc, notifier: notifier}
}

func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")

	versions, err := h.strategySvc.List(r.Context(), topicID)
	if err != nil {
		respondDomainError(w, err, "failed to list strategy versions")
		return
	}

	if versions == nil {
		versions = []*domain.StrategyVersion{}
	}

	respondJSON(w, map[string]any{"versions": versions}, http.StatusOK)
}

func (h *StrategyHandler) Get(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		respondError(w, "invalid version", http.StatusBadRequest)
		return
	}

	sv, err := h.strategySvc.Get(r.Context(), topicID, version)
	if err != nil {
		respondDomainError(w, err, "failed to get strategy version")
		return
	}

	respondJSON(w, sv, http.StatusOK)
}

// Promote handles POST /topics/{id}/strategies/{version}/promote: the named
// version becomes the sole active strategy and all others are archived.
func (h *StrategyHandler) Promote(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		respondError(w, "invalid version", http.StatusBadRequest)
		return
	}

	if err := h.strategySvc.Promote(r.Context(), topicID, version); err != nil {
		respondDomainError(w, err, "failed to promote strategy version")
		return
	}

	if h.notifier != nil {
		h.notifier.StrategyPromoted(topicID, version)
	}

	sv, err := h.strategySvc.Get(r.Context(), topicID, version)
	if err != nil {
		respondDomainError(w, err, "failed to get strategy version")
		return
	}

	respondJSON(w, sv, http.StatusOK)
}
