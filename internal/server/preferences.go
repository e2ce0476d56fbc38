package server

import (
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
)

type preferencesBody struct {
	CustomSystemInstruction string `json:"customSystemInstruction"`
}

func (s *Server) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.errorResponse(w, http.StatusBadRequest, "userId é obrigatório.")
		return
	}

	prefs, err := s.preferences.Get(r.Context(), userID)
	if err != nil {
		s.logger.Error("load preferences failed", "user_id", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Erro ao buscar preferências.")
		return
	}

	s.writeJSON(w, http.StatusOK, preferencesBody{CustomSystemInstruction: prefs.CustomSystemInstruction})
}

func (s *Server) handlePreferencesPut(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		s.errorResponse(w, http.StatusBadRequest, "userId é obrigatório.")
		return
	}

	var req preferencesBody
	if !s.decode(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.CustomSystemInstruction) > model.MaxCustomInstructionLength {
		s.errorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Instrução muito longa (máximo %d caracteres).", model.MaxCustomInstructionLength))
		return
	}

	prefs, err := s.preferences.SetCustomInstruction(r.Context(), userID, req.CustomSystemInstruction)
	if err != nil {
		s.logger.Error("save preferences failed", "user_id", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Erro ao salvar preferências.")
		return
	}

	s.writeJSON(w, http.StatusOK, preferencesBody{CustomSystemInstruction: prefs.CustomSystemInstruction})
}
