// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/okian/monopad/internal/domain/types"
	"github.com/okian/monopad/pkg/logger"
)

const defaultMaxRosterLimit = 500

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EntityDependencies
	RatingDependencies
	TriggerDependencies
	OverlayDependencies
	StatsProvider
	HealthChecker
}

// Entry mirrors the roster row shape.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	entityHandler  *EntityHandler
	ratingHandler  *RatingHandler
	triggerHandler *TriggerHandler
	overlayHandler *OverlayHandler
	overlayPage    *overlayPageHandler
	maxRosterLimit int
	checkOrigin    func(*http.Request) bool
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxRosterLimit: defaultMaxRosterLimit,
		checkOrigin:    func(*http.Request) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.entityHandler = NewEntityHandler(deps, s.maxRosterLimit)
	s.ratingHandler = NewRatingHandler(deps)
	s.triggerHandler = NewTriggerHandler(deps)
	s.overlayHandler = NewOverlayHandler(deps, s.checkOrigin, s.log)
	s.overlayPage = newOverlayPageHandler()
	return s
}

// Register attaches all HTTP routes to router.
func (s *Server) Register(ctx context.Context, router *mux.Router) {
	router.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	router.HandleFunc("/metrics", s.healthHandler.HandleMetrics).Methods(http.MethodGet)
	router.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	router.HandleFunc("/entities", MetricsMiddleware(s.entityHandler.HandleCreate, "entities")).Methods(http.MethodPost)
	router.HandleFunc("/entities", MetricsMiddleware(s.entityHandler.HandleList, "entities")).Methods(http.MethodGet)
	router.HandleFunc("/entities/{id}", MetricsMiddleware(s.entityHandler.HandleGet, "entity")).Methods(http.MethodGet)
	router.HandleFunc("/entities/{id}", MetricsMiddleware(s.entityHandler.HandleDelete, "entity")).Methods(http.MethodDelete)
	router.HandleFunc("/entities/{id}/increase", MetricsMiddleware(s.ratingHandler.HandleIncrease, "increase")).Methods(http.MethodPost)
	router.HandleFunc("/entities/{id}/decrease", MetricsMiddleware(s.ratingHandler.HandleDecrease, "decrease")).Methods(http.MethodPost)

	router.HandleFunc("/triggers", MetricsMiddleware(s.triggerHandler.HandlePostTrigger, "triggers")).Methods(http.MethodPost)

	router.HandleFunc("/overlay", MetricsMiddleware(s.overlayHandler.HandleSnapshot, "overlay")).Methods(http.MethodGet)
	router.HandleFunc("/overlay/dismiss", MetricsMiddleware(s.overlayHandler.HandleDismiss, "dismiss")).Methods(http.MethodPost)
	router.HandleFunc("/overlay/ws", s.overlayHandler.HandleFeed).Methods(http.MethodGet)
	router.HandleFunc("/overlay/view", s.overlayPage.HandleOverlayPage).Methods(http.MethodGet)

	s.log.Debug(ctx, "routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxRosterLimit caps GET /entities?limit.
func WithMaxRosterLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRosterLimit = n
		}
	}
}

// WithCheckOrigin sets the websocket origin check for the overlay feed.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) {
		if fn != nil {
			s.checkOrigin = fn
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}
