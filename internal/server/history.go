package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
)

type saveHistoryRequest struct {
	SessionID string          `json:"sessionId"`
	BotID     string          `json:"botId"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	StartTime time.Time       `json:"startTime"`
	Messages  []model.Content `json:"messages"`
}

type renameRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.errorResponse(w, http.StatusBadRequest, "userId é obrigatório para buscar históricos.")
		return
	}

	records, err := s.history.ListByUser(r.Context(), userID, repository.DefaultHistoryLimit)
	if err != nil {
		s.logger.Error("list history failed", "user_id", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Erro interno ao buscar históricos de chat.")
		return
	}
	if records == nil {
		records = []model.ChatRecord{}
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistoryCreate(w http.ResponseWriter, r *http.Request) {
	var req saveHistoryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.SessionID == "" || len(req.Messages) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "sessionId e messages são obrigatórios.")
		return
	}

	now := s.now()
	record := &model.ChatRecord{
		SessionID: req.SessionID,
		BotID:     req.BotID,
		UserID:    req.UserID,
		Title:     strings.TrimSpace(req.Title),
		StartTime: req.StartTime,
		LoggedAt:  now,
		Messages:  req.Messages,
	}
	if record.StartTime.IsZero() {
		record.StartTime = now
	}

	if err := s.history.Create(r.Context(), record); err != nil {
		s.logger.Error("save history failed", "session_id", req.SessionID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Erro interno ao salvar histórico.")
		return
	}

	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleHistoryRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !s.decode(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		s.errorResponse(w, http.StatusBadRequest, "Título não fornecido.")
		return
	}

	record, err := s.history.UpdateTitle(r.Context(), r.PathValue("id"), title)
	if err != nil {
		s.repositoryError(w, "rename history failed", "Erro interno ao atualizar título.", err)
		return
	}

	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.repositoryError(w, "delete history failed", "Erro interno ao excluir histórico.", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Histórico excluído com sucesso."})
}

func (s *Server) handleHistoryTitle(w http.ResponseWriter, r *http.Request) {
	record, err := s.history.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.repositoryError(w, "load history failed", "Erro interno ao gerar título.", err)
		return
	}

	title, err := s.chat.GenerateTitle(r.Context(), *record)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidInput) {
			s.errorResponse(w, http.StatusBadRequest, "O histórico não possui mensagens.")
			return
		}
		s.agentError(w, "generate title failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"suggestedTitle": title})
}

func (s *Server) repositoryError(w http.ResponseWriter, msg, reply string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		s.errorResponse(w, http.StatusNotFound, "Histórico não encontrado.")
	default:
		s.logger.Error(msg, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, reply)
	}
}
