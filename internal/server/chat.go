package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
)

// Replies for failed model calls, in the persona's voice.
const (
	msgMissingMessage = "Mensagem não fornecida."
	msgRateLimited    = "Muitos movimentos em pouco tempo. A disciplina exige uma pausa. Por favor, aguarde um momento."
	msgOverloaded     = "Peço perdão. Meu espírito digital (a API do Google) encontra-se sobrecarregado no momento. Por favor, aguarde um instante e tente novamente."
	msgInternal       = "Uma perturbação inesperada ocorreu no caminho. Um erro interno impediu a comunicação."
)

// chatRequest accepts both "message" and the older "prompt" field.
type chatRequest struct {
	Message   string `json:"message"`
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}

	message := req.Message
	if strings.TrimSpace(message) == "" {
		message = req.Prompt
	}
	if strings.TrimSpace(message) == "" {
		s.errorResponse(w, http.StatusBadRequest, msgMissingMessage)
		return
	}

	reply, err := s.chat.Send(r.Context(), agent.Request{
		Message:   message,
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		s.agentError(w, "chat failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text, SessionID: reply.SessionID})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	turns, err := s.chat.GetSession(r.Context(), id)
	if err != nil {
		s.logger.Error("get session failed", "session_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		SessionID string          `json:"sessionId"`
		Turns     []model.Content `json:"turns"`
	}{id, turns})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.chat.ClearSession(r.Context(), id); err != nil {
		s.logger.Error("clear session failed", "session_id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, msgInternal)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// agentError maps an agent failure to a status code and a persona message.
// Details are logged, never returned.
func (s *Server) agentError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, agent.ErrInvalidInput):
		s.errorResponse(w, http.StatusBadRequest, msgMissingMessage)
	case errors.Is(err, agent.ErrProviderRateLimited):
		s.logger.Warn(msg, "error", err)
		s.errorResponse(w, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, agent.ErrProviderOverloaded):
		s.logger.Warn(msg, "error", err)
		s.errorResponse(w, http.StatusServiceUnavailable, msgOverloaded)
	default:
		s.logger.Error(msg, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, msgInternal)
	}
}
