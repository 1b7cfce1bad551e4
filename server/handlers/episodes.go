package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/services"
)

type EpisodeHandler struct {
	episodeSvc  *services.EpisodeService
	researchSvc *services.ResearchService
	notifier    Notifier
}

func NewEpisodeHandler(episodeSvc *services.EpisodeService, researchSvc *services.ResearchService, notifier Notifier) *EpisodeHandler {
	return &EpisodeHandler{episodeSvc: episodeSvc, researchSvc: researchSvc, notifier: notifier}
}

// Research handles POST /topics/{id}/research: it runs a full research
// episode under the topic's current strategy mix and returns the terminal
// episode record.
func (h *EpisodeHandler) Research(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		respondError(w, "query is required", http.StatusBadRequest)
		return
	}

	episode, err := h.researchSvc.Run(r.Context(), topicID, req.Query)
	if err != nil {
		respondDomainError(w, err, "failed to run research episode")
		return
	}

	if h.notifier != nil {
		h.notifier.EpisodeFinished(episode)
	}

	respondJSON(w, episode, http.StatusOK)
}

func (h *EpisodeHandler) List(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	episodes, err := h.episodeSvc.List(r.Context(), topicID, limit, offset)
	if err != nil {
		respondDomainError(w, err, "failed to list episodes")
		return
	}

	if episodes == nil {
		episodes = []*domain.Episode{}
	}

	respondJSON(w, map[string]any{"episodes": episodes}, http.StatusOK)
}

func (h *EpisodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	episodeID := chi.URLParam(r, "id")

	episode, err := h.episodeSvc.Get(r.Context(), episodeID)
	if err != nil {
		respondDomainError(w, err, "failed to get episode")
		return
	}

	respondJSON(w, episode, http.StatusOK)
}
