package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bankassist/banking-agent/internal/service"
)

// handleChatStream answers a chat turn over server-sent events. Progress
// frames (`retrieval`, `tool`) are flushed as the turn advances, then a
// `final` frame carries the answer. Errors after the stream opens arrive
// as an `error` frame since the status line is already written.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(event service.StreamEvent) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		flusher.Flush()
	}

	if _, err := s.chat.ChatStream(r.Context(), req.ConversationID, req.Message, emit); err != nil {
		emit(service.StreamEvent{Type: "error", Data: map[string]any{
			"error": err.Error(),
		}})
	}
}
