// Package admin serves the agent's operational HTTP API: health, metrics,
// the endpoint inventory and configuration reloads.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/getmockd/sunsetd/pkg/agent"
	"github.com/getmockd/sunsetd/pkg/logging"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
	readHeaderTimeout       = 5 * time.Second
)

// Server is the admin HTTP server.
type Server struct {
	agent     *agent.Agent
	log       *slog.Logger
	startTime time.Time
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = logging.OrNop(log) }
}

// NewServer creates the admin API for a.
func NewServer(a *agent.Agent, opts ...Option) *Server {
	s := &Server{
		agent:     a,
		log:       logging.Nop(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.Tracker().Handler())
	r.Get("/endpoints", s.handleListEndpoints)
	r.Get("/endpoints/{id}", s.handleGetEndpoint)
	r.Get("/decide", s.handleDecide)
	r.Post("/reload", s.handleReload)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	return int(time.Since(s.startTime).Seconds())
}

// Serve serves the admin API on lis until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting admin API", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin API: %w", err)
	case <-ctx.Done():
	}

	ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	srv.SetKeepAlivesEnabled(false)
	if err := srv.Shutdown(ctxTimeout); err != nil {
		return fmt.Errorf("admin API shutdown: %w", err)
	}
	return nil
}
