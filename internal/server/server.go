// Package server exposes the chatbot over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
)

const maxBodyBytes = 1 << 20

// Chatter is the conversation engine behind the chat routes.
// *agent.Agent satisfies it.
type Chatter interface {
	Send(ctx context.Context, req agent.Request) (*agent.Reply, error)
	GenerateTitle(ctx context.Context, record model.ChatRecord) (string, error)
	GetSession(ctx context.Context, sessionID string) ([]model.Content, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// Server is the HTTP API server.
type Server struct {
	addr        string
	chat        Chatter
	history     repository.HistoryRepository
	preferences repository.PreferencesRepository
	static      fs.FS
	logger      *slog.Logger
	server      *http.Server
	now         func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the saved-conversation routes.
func WithHistory(repo repository.HistoryRepository) Option {
	return func(s *Server) { s.history = repo }
}

// WithPreferences enables the user preference routes.
func WithPreferences(repo repository.PreferencesRepository) Option {
	return func(s *Server) { s.preferences = repo }
}

// WithStatic serves fsys at the site root.
func WithStatic(fsys fs.FS) Option {
	return func(s *Server) { s.static = fsys }
}

func New(addr string, chat Chatter, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		chat:   chat,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.history != nil {
		mux.HandleFunc("GET /api/chat/history", s.handleHistoryList)
		mux.HandleFunc("POST /api/chat/history", s.handleHistoryCreate)
		mux.HandleFunc("PUT /api/chat/history/{id}", s.handleHistoryRename)
		mux.HandleFunc("DELETE /api/chat/history/{id}", s.handleHistoryDelete)
		mux.HandleFunc("POST /api/chat/history/{id}/title", s.handleHistoryTitle)
	}

	if s.preferences != nil {
		mux.HandleFunc("GET /api/user/preferences", s.handlePreferencesGet)
		mux.HandleFunc("PUT /api/user/preferences", s.handlePreferencesPut)
	}

	if s.static != nil {
		mux.Handle("GET /", http.FileServerFS(s.static))
	}

	return s.withLogging(mux)
}

// Start listens until Shutdown is called. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	s.logger.Info("starting API server", "address", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("failed to write JSON response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

// decode reads a JSON body into v, reporting a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Corpo da requisição inválido.")
		return false
	}
	return true
}
