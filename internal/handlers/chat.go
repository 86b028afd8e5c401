package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"fabric-agent/internal/models"
)

const maxChatBodyBytes = 1 << 20

type assistantService interface {
	Ask(ctx context.Context, message string) (string, error)
}

type ChatHandler struct {
	assistant assistantService
}

func NewChatHandler(assistant assistantService) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// Chat relays one user message to the assistant on a fresh thread.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("No message provided"))
		return
	}

	reply, err := h.assistant.Ask(r.Context(), req.Message)
	if err != nil {
		handleAssistantError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}
