package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bankassist/banking-agent/internal/agent"
	"github.com/bankassist/banking-agent/internal/service"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type chatResponse struct {
	Response       string         `json:"response"`
	Iterations     int            `json:"iterations"`
	ToolCalls      []toolCallView `json:"tool_calls"`
	Success        bool           `json:"success"`
	ConversationID string         `json:"conversation_id"`
}

type toolCallView struct {
	Name    string          `json:"name"`
	Args    json.RawMessage `json:"args"`
	IsError bool            `json:"is_error"`
}

func toolCallViews(records []agent.ToolCallRecord) []toolCallView {
	views := make([]toolCallView, 0, len(records))
	for _, record := range records {
		args := json.RawMessage(record.Arguments)
		if !json.Valid(args) {
			args, _ = json.Marshal(record.Arguments)
		}
		views = append(views, toolCallView{
			Name:    record.ToolName,
			Args:    args,
			IsError: record.IsError,
		})
	}
	return views
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"rag_ready":   s.chat.RAGReady(),
		"agent_ready": s.chat.AgentReady(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	result, err := s.chat.Chat(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		if service.IsErrorKind(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:       result.Response,
		Iterations:     result.Iterations,
		ToolCalls:      toolCallViews(result.ToolCalls),
		Success:        result.Success,
		ConversationID: result.ConversationID,
	})
}

type resetRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// An empty body resets the default conversation.
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := s.chat.Reset(r.Context(), req.ConversationID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Conversation reset successfully",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	info := map[string]any{
		"name":    "Banking AI Agent",
		"version": s.version,
		"capabilities": []string{
			"Account information retrieval",
			"Transaction history lookup",
			"Branch location finder",
			"Loan eligibility check",
			"Query escalation to human agents",
			"Context-aware responses using RAG",
		},
		"model":       s.chat.Model(),
		"rag_enabled": s.chat.RAGReady(),
		"tools":       s.chat.ToolNames(),
	}
	if count, err := s.chat.ConversationCount(r.Context()); err == nil {
		info["conversations"] = count
	}
	if s.maintenance != nil {
		if trigger, err := s.maintenance.TriggerInfo(); err == nil {
			info["maintenance"] = map[string]any{
				"schedule": trigger.Expression,
				"last_run": trigger.Last,
				"next_run": trigger.Next,
			}
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
