package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/bankassist/banking-agent/internal/service"
)

type Server struct {
	chat        *service.ChatService
	maintenance *service.MaintenanceService
	version     string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithMaintenance exposes the maintenance schedule on /api/info.
func WithMaintenance(m *service.MaintenanceService) Option {
	return func(s *Server) {
		s.maintenance = m
	}
}

func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

func NewServer(chat *service.ChatService, opts ...Option) *Server {
	s := &Server{
		chat:    chat,
		version: "1.0.0",
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	s.mux.HandleFunc("/api/reset", s.handleReset)
	s.mux.HandleFunc("/api/info", s.handleInfo)
}

// withCORS permits any origin. The UI is served separately and talks to this
// API cross-origin, like the original deployment.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
