// Package web serves the engine as a JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/conorfennell/knoldeck/internal/engine"
	"github.com/conorfennell/knoldeck/internal/importer"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	engine   *engine.Engine
	importer *importer.Importer
	log      *slog.Logger
	origins  []string
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithCORSOrigins sets the origins browsers may call the API from.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithImporter enables POST /api/import.
func WithImporter(im *importer.Importer) Option {
	return func(s *Server) { s.importer = im }
}

// NewServer creates and configures a new server.
func NewServer(e *engine.Engine, opts ...Option) *Server {
	s := &Server{
		engine: e,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}).Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/due", s.handleListDue())
		r.Get("/upcoming", s.handleSearch())
		r.Get("/summary", s.handleSummary())

		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.handleDeckTree())
			r.Post("/", s.handleCreateDeck())
			r.Post("/reorder", s.handleReorderDecks())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDeck())
				r.Patch("/", s.handlePatchDeck())
				r.Delete("/", s.handleDeleteDeck())
				r.Post("/reorder", s.handleReorderDecks())
				r.Get("/cards", s.handleDeckCards())
				r.Get("/count", s.handleDeckCount())
			})
		})

		r.Route("/cards", func(r chi.Router) {
			r.Post("/", s.handleCreateCard())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCard())
				r.Patch("/", s.handlePatchCard())
				r.Delete("/", s.handleDeleteCard())
				r.Post("/review", s.handleReview())
				r.Get("/reviews", s.handleReviewHistory())
				r.Get("/preview", s.handlePreview())
			})
		})

		r.Post("/import", s.handleImport())
	})

	s.router = r
}
