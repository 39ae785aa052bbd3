package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/rating-ladder/internal/browser"
	"github.com/terra-clan/rating-ladder/internal/config"
	"github.com/terra-clan/rating-ladder/internal/models"
	"github.com/terra-clan/rating-ladder/internal/profile"
	"github.com/terra-clan/rating-ladder/internal/storage"
)

// Catalog is everything the view sessions read from the catalog backend
type Catalog interface {
	browser.Catalog
	profile.Fetcher
}

// DistributionSource serves the cached rating distribution
type DistributionSource interface {
	Current(ctx context.Context) (models.Distribution, error)
}

// Deps are the collaborators of the server
type Deps struct {
	Storage        storage.Storage
	Catalog        Catalog
	Distribution   DistributionSource
	SearchDebounce time.Duration
}

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	storage  storage.Storage
	catalog  Catalog
	dist     DistributionSource
	debounce time.Duration
	upgrader *websocket.Upgrader
	sessions *sessionSet
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		config:   cfg,
		storage:  deps.Storage,
		catalog:  deps.Catalog,
		dist:     deps.Distribution,
		debounce: deps.SearchDebounce,
		sessions: newSessionSet(),
	}
	s.upgrader = s.newUpgrader()
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", ClientIDHeader},
		ExposedHeaders:   []string{"X-Request-ID", ClientIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)

		// long-lived, must not run under the request timeout
		r.Get("/ws", s.handleSessionWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/tiers", s.handleTiers)
			r.Get("/buckets", s.handleBuckets)
			r.Get("/recommendation", s.handleRecommendation)

			r.Route("/progress", func(r chi.Router) {
				r.Get("/", s.handleGetProgress)
				r.Delete("/", s.handleResetProgress)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSolved)
					r.Put("/", s.handleMarkSolved)
					r.Delete("/", s.handleUnmarkSolved)
					r.Post("/toggle", s.handleToggleSolved)
				})
			})

			r.Get("/prefs", s.handleGetPrefs)
			r.Put("/prefs", s.handlePutPrefs)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"client_id", ClientIDFromContext(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
