package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/services"
)

type TopicHandler struct {
	topicSvc *services.TopicService
}

func NewTopicHandler(topicSvc *services.TopicService) *TopicHandler {
	return &TopicHandler{topicSvc: topicSvc}
}

func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	topic, err := h.topicSvc.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		respondDomainError(w, err, "failed to create topic")
		return
	}

	respondJSON(w, topic, http.StatusCreated)
}

func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	topics, err := h.topicSvc.List(r.Context(), limit, offset)
	if err != nil {
		respondDomainError(w, err, "failed to list topics")
		return
	}

	if topics == nil {
		topics = []*domain.Topic{}
	}

	respondJSON(w, map[string]any{"topics": topics}, http.StatusOK)
}

func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	topicID := chi.URLParam(r, "id")

	topic, err := h.topicSvc.Get(r.Context(), topicID)
	if err != nil {
		respondDomainError(w, err, "failed to get topic")
		return
	}

	respondJSON(w, topic, http.StatusOK)
}
