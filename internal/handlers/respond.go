package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"fabric-agent/internal/models"
	"fabric-agent/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

// handleAssistantError maps a failed relay to a 500 with a caller-facing message.
func handleAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	var runErr *services.RunFailedError
	switch {
	case errors.As(err, &runErr):
		writeJSON(w, http.StatusInternalServerError, errorResp(runErr.Error()))
	case errors.Is(err, services.ErrRunTimeout):
		writeJSON(w, http.StatusInternalServerError, errorResp("Request timeout"))
	case errors.Is(err, services.ErrNoResponse):
		writeJSON(w, http.StatusInternalServerError, errorResp("No response from assistant"))
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Error in chat endpoint")
		writeJSON(w, http.StatusInternalServerError, errorResp(err.Error()))
	}
}
