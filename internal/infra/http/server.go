// Package http exposes the webhook ingress plus the health and metrics
// endpoints. Telegram is the only intended caller of the webhook route;
// everything else answers 404.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// UpdateEnqueuer parses a webhook request body and queues the update for the
// dispatch workers.
type UpdateEnqueuer interface {
	EnqueueWebhookUpdate(req *http.Request) error
}

type Server struct {
	addr        string
	webhookPath string
	enqueuer    UpdateEnqueuer
	log         *zerolog.Logger

	server *http.Server
}

func NewServer(port int, webhookPath string, enqueuer UpdateEnqueuer, logger *zerolog.Logger) *Server {
	return &Server{
		addr:        fmt.Sprintf(":%d", port),
		webhookPath: webhookPath,
		enqueuer:    enqueuer,
		log:         logger,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post(s.webhookPath, s.handleWebhook)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.addr).Str("path", s.webhookPath).Msg("http server listening")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleWebhook hands the body to the bot adapter. Telegram retries on
// non-2xx, so a malformed body is answered 400 to stop the retry loop for
// garbage while real queue handoff always returns 200 immediately.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.enqueuer.EnqueueWebhookUpdate(r); err != nil {
		s.log.Warn().Err(err).Msg("rejected webhook payload")
		http.Error(w, "bad update payload", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
