// Package httpapi exposes the assistant over HTTP. Routes live under
// /api/v1; infrastructure failures on the chat path surface as
// degraded answers, never as 5xx responses.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/meridian-labs/briefing/internal/core/ports/driving"
	"github.com/meridian-labs/briefing/internal/logger"
)

// Default configuration values.
const (
	DefaultAddr            = ":8080"
	DefaultRequestTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server and its router.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and wires the handlers. allowedOrigins
// configures CORS; an empty slice allows any origin.
func NewServer(addr string, conversation driving.Conversation, ingestor driving.Ingestor, allowedOrigins []string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	h := &handler{conversation: conversation, ingestor: ingestor}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/chat", h.chat)
		api.Get("/chat/{sessionID}/history", h.history)
		api.Delete("/chat/{sessionID}", h.reset)
		api.Post("/documents", h.ingest)
		api.Get("/stats", h.stats)
		api.Get("/health", h.health)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
