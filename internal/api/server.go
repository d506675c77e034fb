// Package api provides the HTTP REST API for the staffboard kanban.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	apimw "github.com/hugo-lorenzo-mato/staffboard/internal/api/middleware"
	"github.com/hugo-lorenzo-mato/staffboard/internal/board"
	"github.com/hugo-lorenzo-mato/staffboard/internal/events"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
)

// Services are the kanban components the API serves.
type Services struct {
	Cards *kanban.Store
	Audit *kanban.AuditTrail
	Board *board.Board
	// Events feeds the SSE stream. Nil disables /api/v1/events.
	Events *events.EventBus
}

// Server provides HTTP REST API endpoints for the board.
type Server struct {
	router          chi.Router
	cards           *kanban.Store
	stages          *kanban.Stages
	audit           *kanban.AuditTrail
	board           *board.Board
	eventBus        *events.EventBus
	logger          *slog.Logger
	allowedOrigins  []string
	requestTimeout  time.Duration
	shutdownTimeout time.Duration

	// closing ends open event streams when the server shuts down.
	closing   chan struct{}
	closeOnce sync.Once
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAllowedOrigins restricts CORS to origins. Empty allows any origin.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithShutdownTimeout bounds graceful shutdown in ListenAndServe.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithRequestTimeout bounds REST handlers. The SSE stream is exempt.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewServer creates a new API server.
func NewServer(svc Services, opts ...ServerOption) *Server {
	s := &Server{
		cards:           svc.Cards,
		stages:          svc.Cards.Stages(),
		audit:           svc.Audit,
		board:           svc.Board,
		eventBus:        svc.Events,
		logger:          slog.Default(),
		requestTimeout:  60 * time.Second,
		shutdownTimeout: 5 * time.Second,
		closing:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", apimw.HeaderActorID, apimw.HeaderActorName},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)
	r.Use(apimw.ActorMiddleware(s.logger))

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))

			r.Route("/stages", func(r chi.Router) {
				r.Get("/", s.handleListStages)
				r.Post("/", s.handleCreateStage)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", s.handleListCards)
				r.Post("/", s.handleCreateCard)

				r.Route("/{cardID}", func(r chi.Router) {
					r.Get("/", s.handleGetCard)
					r.Patch("/", s.handleUpdateCard)
					r.Post("/move", s.handleMoveCard)
					r.Get("/comments", s.handleListComments)
					r.Post("/comments", s.handleCreateComment)
					r.Get("/history", s.handleListHistory)
				})
			})

			r.Get("/board", s.handleGetBoard)
		})

		// SSE endpoint for real-time updates
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a JSON request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(s.CloseStreams)

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}

// CloseStreams ends every open SSE stream.
func (s *Server) CloseStreams() {
	s.closeOnce.Do(func() { close(s.closing) })
}
