package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/bookgest/internal/config"
	"github.com/dgallion1/bookgest/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for bookgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)

		r.Group(func(r chi.Router) {
			r.Use(UploadLimit(s.cfg.MaxUploadBytes))

			r.Post("/parse", s.handleParse)
			r.Post("/ingest", s.handleIngest)
			r.Post("/ingest/batch", s.handleBatchIngest)
		})
		r.Get("/ingest/{jobID}/status", s.handleIngestStatus)

		r.Route("/books/{jobID}", func(r chi.Router) {
			r.Get("/", s.handleGetBook)
			r.Delete("/", s.handleDeleteBook)
			r.Get("/chapters", s.handleListChapters)
			r.Get("/passages", s.handleListPassages)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
