// Package statusapi serves the local HTTP status endpoint. It exposes health
// probes and the most recent usage snapshot so shell prompts, status bars,
// and scripts can read usage without their own OAuth credentials.
package statusapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jrdx0/claudetray/internal/usage"
)

// ReadinessChecker reports whether the application is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Server is the local status HTTP server. Safe for concurrent use.
type Server struct {
	handler http.Handler
	server  *http.Server

	mu        sync.RWMutex
	snapshot  *usage.Snapshot
	updatedAt time.Time
}

// New creates a status server. The checker backs the readiness probe.
func New(checker ReadinessChecker) *Server {
	s := &Server{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", livenessHandler())
	mux.HandleFunc("GET /readyz", readinessHandler(checker))
	mux.HandleFunc("GET /v1/usage", s.usageHandler())

	s.handler = applyMiddlewares(mux,
		Recovery,
		RequestIDGeneration,
		TraceContextExtraction,
		Logging(),
		RequestIDPropagation,
	)

	return s
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// SetUsage records the latest snapshot served by /v1/usage.
func (s *Server) SetUsage(snapshot *usage.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.updatedAt = time.Now()
}

// Start binds addr and serves in a background goroutine. The returned channel
// receives the terminal serve error, or nil after a clean shutdown.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	return errCh, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// usageResponse is the /v1/usage payload.
type usageResponse struct {
	Usage     *usage.Snapshot `json:"usage"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Server) usageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		snapshot, updatedAt := s.snapshot, s.updatedAt
		s.mu.RUnlock()

		if snapshot == nil {
			http.Error(w, "no usage snapshot yet", http.StatusNotFound)
			return
		}

		writeJSON(r.Context(), w, usageResponse{Usage: snapshot, UpdatedAt: updatedAt}, http.StatusOK)
	}
}

func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
	}
}

func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if checker.IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}
