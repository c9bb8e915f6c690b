package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dusk-indust/agentmux/internal/mcptools"
)

// maxBodyBytes caps envelope request bodies.
const maxBodyBytes = 1 << 20

// envelopeRequest is the POST /mcp body.
type envelopeRequest struct {
	Method string `json:"method"`
	Params struct {
		Name      string `json:"name"`
		Arguments struct {
			Question string `json:"question"`
			AppKey   string `json:"app_key"`
		} `json:"arguments"`
	} `json:"params"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResponse struct {
	Content []textContent `json:"content"`
}

type listResponse struct {
	Tools []mcptools.ToolDescriptor `json:"tools"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleEnvelope serves tools/list and tools/call. Orchestration failures
// are answered as text with status 200; only unknown methods or tools (400)
// and unreadable bodies (500) are HTTP errors.
func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("read body: %v", err)})
		return
	}

	var req envelopeRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.logger.Debug("malformed envelope", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
	}

	switch {
	case req.Method == "tools/list":
		writeJSON(w, http.StatusOK, listResponse{Tools: mcptools.Descriptors()})

	case req.Method == "tools/call" && req.Params.Name == mcptools.ToolMultiAgentChat:
		args := req.Params.Arguments
		answer := s.svc.Chat(r.Context(), args.Question, args.AppKey)
		writeJSON(w, http.StatusOK, callResponse{
			Content: []textContent{{Type: "text", Text: answer}},
		})

	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid method"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
