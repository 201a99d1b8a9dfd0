// Package api serves the operator endpoints: metrics, health and profiling.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dataprobe/internal"
	"dataprobe/internal/metrics"
)

// SessionCounter reports how many sessions are live
type SessionCounter interface {
	Len() int
}

// OpsServer exposes /metrics, /healthz and /debug/pprof on a separate port
type OpsServer struct {
	router   *chi.Mux
	metrics  *metrics.PrometheusCollector
	sessions SessionCounter
	logger   *internal.Logger
	started  time.Time

	mu         sync.Mutex
	httpServer *http.Server
}

// NewOpsServer builds the operator router
func NewOpsServer(collector *metrics.PrometheusCollector, sessions SessionCounter, logger *internal.Logger) *OpsServer {
	if logger == nil {
		logger = internal.NopLogger()
	}
	s := &OpsServer{
		router:   chi.NewRouter(),
		metrics:  collector,
		sessions: sessions,
		logger:   logger.With("ops"),
		started:  time.Now(),
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/healthz", s.handleHealth)
	if collector != nil {
		s.router.Handle("/metrics", collector.Handler())
	}
	s.router.Mount("/debug", middleware.Profiler())
	return s
}

// Handler exposes the router, mainly for tests
func (s *OpsServer) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status        string `json:"status"`
	Sessions      int    `json:"sessions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.Len()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:        "ok",
		Sessions:      sessions,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	})
}

// Start serves on addr until Shutdown is called
func (s *OpsServer) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("ops endpoints on http://%s (/metrics, /healthz, /debug/pprof)", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server
func (s *OpsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
