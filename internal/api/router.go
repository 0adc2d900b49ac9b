// Package api exposes the analysis engine over HTTP: batch analysis,
// feedback submission, result retrieval, rendered reports, and a
// WebSocket feed of completed analyses.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"personal-insights/internal/analysis"
	"personal-insights/internal/config"
	"personal-insights/internal/learning"
	"personal-insights/internal/logging"
	"personal-insights/internal/storage"
)

// maxRequestBytes caps request bodies; event batches are finite
const maxRequestBytes = 10 * 1024 * 1024

// Server wires the engine and its collaborators behind the HTTP API
type Server struct {
	cfg          *config.Config
	mux          *chi.Mux
	orchestrator *analysis.Orchestrator
	profiles     *learning.Store
	store        storage.AnalysisStore
	source       storage.EventSource
	hub          *Hub
	logger       logging.Logger
}

// NewServer creates the API server. source may be nil when no upstream
// event database is configured; window-based analysis then returns 503.
func NewServer(cfg *config.Config, orchestrator *analysis.Orchestrator, profiles *learning.Store, store storage.AnalysisStore, source storage.EventSource, logger logging.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		mux:          chi.NewRouter(),
		orchestrator: orchestrator,
		profiles:     profiles,
		store:        store,
		source:       source,
		hub:          NewHub(logger.WithComponent("ws")),
		logger:       logger.WithComponent("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Hub returns the WebSocket hub so main can run its loop
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) setupMiddleware() {
	s.mux.Use(chimiddleware.Recoverer)
	s.mux.Use(chimiddleware.RequestID)
	s.mux.Use(s.traceMiddleware())
	s.mux.Use(chimiddleware.Timeout(time.Duration(s.cfg.Server.WriteTimeout) * time.Second))
	s.mux.Use(chimiddleware.RequestSize(maxRequestBytes))
	s.mux.Use(chimiddleware.Heartbeat("/ping"))
}

func (s *Server) setupRoutes() {
	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Get("/ws", s.handleWebSocket)

	s.mux.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/results/{userID}/latest", s.handleLatestResult)
		r.Get("/profile/{userID}", s.handleProfile)
		r.Get("/report/{userID}", s.handleReport)
	})
}

// traceMiddleware stamps each request context with a trace ID so log
// lines across the call can be tied together.
func (s *Server) traceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.WithTraceContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
