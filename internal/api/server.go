package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/auth"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/metrics"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// UniverseStore is the persistence surface the API needs beyond what the
// orchestrator itself uses.
type UniverseStore interface {
	sim.Store
	Create(ctx context.Context, u *universe.Universe) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*universe.Universe, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// Server holds the handler dependencies.
type Server struct {
	store   UniverseStore
	runner  *sim.Runner
	users   *auth.Store
	tokens  *auth.Tokens
	metrics *metrics.Set
	log     zerolog.Logger
	dev     bool
}

// Config wires a Server. Users may be nil when the relational store is not
// configured; the auth endpoints then report unavailability.
type Config struct {
	Store       UniverseStore
	Runner      *sim.Runner
	Users       *auth.Store
	Tokens      *auth.Tokens
	Metrics     *metrics.Set
	Log         zerolog.Logger
	Development bool
}

// NewServer builds the server.
func NewServer(cfg Config) *Server {
	return &Server{
		store:   cfg.Store,
		runner:  cfg.Runner,
		users:   cfg.Users,
		tokens:  cfg.Tokens,
		metrics: cfg.Metrics,
		log:     cfg.Log.With().Str("component", "api").Logger(),
		dev:     cfg.Development,
	}
}

// Router assembles the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]any{"status": "healthy"})
	})

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Route("/universe", func(r chi.Router) {
		r.Use(s.tokens.Middleware(s.respondError))

		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)

		r.Route("/{universeID}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/simulate", s.handleSimulate)
			r.Post("/resolve-anomaly", s.handleResolveAnomaly)
			r.Get("/stats", s.handleStats)
			r.Get("/anomalies", s.handleAnomalies)
			r.Get("/predictions", s.handlePredictions)
			r.Get("/end-conditions", s.handleEndConditions)
			r.Post("/cleanup-anomalies", s.handleCleanupAnomalies)
		})
	})

	return r
}
