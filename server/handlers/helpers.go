package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gadicohen93/deepcurrent/domain"
)

// Notifier pushes API events to live subscribers. Handlers treat a nil
// notifier as "nobody listening".
type Notifier interface {
	EpisodeFinished(ep *domain.Episode)
	StrategyPromoted(topicID string, version int)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// respondDomainError maps domain sentinels to HTTP statuses and falls back to
// 500 with the given message for everything else.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidState):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrVersionConflict):
		respondError(w, "version conflict", http.StatusConflict)
	default:
		slog.Error(fallback, "error", err)
		respondError(w, fallback, http.StatusInternalServerError)
	}
}

func parseIntQuery(r *http.Request, name string, defaultValue int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
