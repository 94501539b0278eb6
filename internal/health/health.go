// Package health provides the liveness, readiness and metrics endpoints.
//
// Docker and Kubernetes poll /healthz and /readyz. /readyz additionally
// reports the accessibility service status, since a daemon whose service is
// disabled accepts traffic but executes nothing. /metrics serves the
// Prometheus registry.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nadzzz/voxtap/internal/message"
)

// StatusFunc reports the current accessibility service status.
type StatusFunc func() message.ServiceStatus

// Server is a lightweight HTTP server for liveness, readiness and metrics.
type Server struct {
	port     int
	gatherer prometheus.Gatherer
	status   StatusFunc
	ready    atomic.Bool
	server   *http.Server
}

// New creates a new health server. A nil gatherer disables /metrics and a
// nil status func leaves the service status out of /readyz.
func New(port int, gatherer prometheus.Gatherer, status StatusFunc) *Server {
	return &Server{port: port, gatherer: gatherer, status: status}
}

// SetReady marks the daemon as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Routes returns the health and metrics handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeHealth(w, nil)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		var svc *message.ServiceStatus
		if s.status != nil {
			st := s.status()
			svc = &st
		}
		s.writeHealth(w, svc)
	})

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

type healthResponse struct {
	Status  string                 `json:"status"`
	Service *message.ServiceStatus `json:"service,omitempty"`
}

func (s *Server) writeHealth(w http.ResponseWriter, svc *message.ServiceStatus) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{Status: "ok", Service: svc}
	if !s.ready.Load() {
		resp.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ListenAndServe starts the health HTTP server.
// It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
