package chat

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	assistant *Assistant
}

func NewHandler(assistant *Assistant) *Handler {
	return &Handler{assistant: assistant}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// Chat serves POST /api/chat with a user question.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if body.Message == "" {
		writeErr(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := h.assistant.Answer(r.Context(), body.Message)
	if err != nil {
		h.assistant.logger.Error().Err(err).Msg("assistant request failed")
		writeErr(w, http.StatusBadGateway, "assistant unavailable, please try again")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}
