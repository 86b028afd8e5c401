package handlers

import (
	"net/http"

	"fabric-agent/internal/models"
)

type HealthHandler struct {
	assistantID string
}

func NewHealthHandler(assistantID string) *HealthHandler {
	return &HealthHandler{assistantID: assistantID}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy", AssistantID: h.assistantID})
}
