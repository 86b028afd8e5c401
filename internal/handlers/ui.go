package handlers

import (
	"net/http"
)

type UIHandler struct {
	page []byte
}

func NewUIHandler(page []byte) *UIHandler {
	return &UIHandler{page: page}
}

func (h *UIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.page)
}
