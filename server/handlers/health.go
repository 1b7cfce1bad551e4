package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	dbPing func(context.Context) error
}

func NewHealthHandler(dbPing func(context.Context) error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing}
}

type healthStatus struct {
	Status     string                     `json:"status"` // "healthy", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]componentStatus `json:"components"`
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency int64  `json:"latency_ms,omitempty"`
}

// Health handles GET /health and checks the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := healthStatus{
		Timestamp:  time.Now().UTC(),
		Status:     "healthy",
		Components: make(map[string]componentStatus),
	}

	if h.dbPing != nil {
		start := time.Now()
		err := h.dbPing(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			status.Components["database"] = componentStatus{
				Status:  "unhealthy",
				Message: err.Error(),
				Latency: latency,
			}
			status.Status = "unhealthy"
		} else {
			status.Components["database"] = componentStatus{
				Status:  "healthy",
				Latency: latency,
			}
		}
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	respondJSON(w, status, httpStatus)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("alive"))
}
