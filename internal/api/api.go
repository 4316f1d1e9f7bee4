// Package api provides HTTP handlers and the main API server logic for LeadAdvisor.
//
// It exposes the streaming chat endpoint, stateful session endpoints, quick
// reply lookups, and lead listing. The API integrates with the flow, store,
// and gallery modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ClevensDigital/LeadAdvisor/internal/flow"
	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":8080"

// shutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the server listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server carries the dependencies shared by all handlers.
type Server struct {
	sessions *flow.SessionManager
	advisor  *flow.Advisor
	addr     string
}

// NewServer creates an API server over the given session manager and
// advisor. The advisor serves the stateless /chat endpoint; everything
// stateful goes through the session manager.
func NewServer(sessions *flow.SessionManager, advisor *flow.Advisor, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("api.NewServer: configured", "addr", cfg.Addr)
	return &Server{sessions: sessions, advisor: advisor, addr: cfg.Addr}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("POST /sessions", s.createSessionHandler)
	mux.HandleFunc("GET /sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("POST /sessions/{id}/messages", s.sessionMessageHandler)
	mux.HandleFunc("GET /sessions/{id}/quickreplies", s.sessionQuickRepliesHandler)
	mux.HandleFunc("GET /quickreplies", s.quickRepliesHandler)
	mux.HandleFunc("GET /leads", s.leadsHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run serves the API until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api.Run: server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		slog.Info("api.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", nil))
}
