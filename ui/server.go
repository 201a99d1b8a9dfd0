package ui

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"dataprobe/app"
	"dataprobe/internal"
	"dataprobe/internal/metrics"
	"dataprobe/internal/session"
)

// SessionCookie carries the session id between requests
const SessionCookie = "dataprobe_session"

// Options tunes the web UI
type Options struct {
	MaxUploadBytes int64
	SessionTTL     time.Duration
	// MaxDisplayRows caps the filtered rows rendered in the page; exports are never capped
	MaxDisplayRows int
}

// DefaultOptions returns the 50 MB upload cap and a 30 minute session cookie
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: 50 << 20,
		SessionTTL:     30 * time.Minute,
		MaxDisplayRows: 500,
	}
}

// Server represents the web server for the explorer UI
type Server struct {
	router    *gin.Engine
	templates *template.Template
	explorer  *app.ExplorerService
	sessions  *session.Manager
	options   Options
	logger    *internal.Logger
	metrics   metrics.Collector

	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer wires the routes; nil logger or collector discard their output
func NewServer(explorer *app.ExplorerService, sessions *session.Manager, options Options, logger *internal.Logger, collector metrics.Collector) (*Server, error) {
	if logger == nil {
		logger = internal.NopLogger()
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		explorer:  explorer,
		sessions:  sessions,
		options:   options,
		logger:    logger.With("ui"),
		metrics:   collector,
	}
	// Column names travel escaped in chart URLs and may contain slashes.
	s.router.UseRawPath = true
	s.router.MaxMultipartMemory = 8 << 20

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/filters", s.requireSession, s.handleFilters)
	s.router.POST("/reset", s.handleReset)

	s.router.GET("/export.csv", s.requireSession, s.handleExportCSV)
	s.router.GET("/export.xlsx", s.requireSession, s.handleExportXLSX)
	s.router.GET("/report.md", s.requireSession, s.handleReportMarkdown)
	s.router.GET("/charts/:kind/:file", s.requireSession, s.handleChart)

	s.router.GET("/api/state", s.requireSession, s.handleState)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("starting explorer UI on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
