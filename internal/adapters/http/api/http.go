// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/huddle/internal/adapters/repository"
	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/matching"
	"github.com/okian/huddle/internal/domain/scoring"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
)

const defaultMaxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a matching. Duplicate request ids return the original run.
	Submit(ctx context.Context, req types.MatchRequest) (types.Submission, error)

	// Match runs a matching inline.
	Match(ctx context.Context, req types.MatchRequest) (matching.Result, error)

	// Get returns a run by id.
	Get(ctx context.Context, id string) (types.Run, error)

	// Profiles lists the registered weight profiles.
	Profiles() []scoring.Profile
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	matchingsHandler *MatchingsHandler
	profilesHandler  *ProfilesHandler
	logger           logger.Logger
}

// ServerOption customizes a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{maxBodyBytes: defaultMaxBodyBytes, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		matchingsHandler: NewMatchingsHandler(deps, cfg.maxBodyBytes),
		profilesHandler:  NewProfilesHandler(deps),
		logger:           cfg.logger.Named("http"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz", s.logger))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats", s.logger))
	mux.HandleFunc("GET /profiles", MetricsMiddleware(s.profilesHandler.HandleListProfiles, "profiles", s.logger))
	mux.HandleFunc("POST /matchings", MetricsMiddleware(s.matchingsHandler.HandleSubmit, "matchings", s.logger))
	mux.HandleFunc("POST /matchings/sync", MetricsMiddleware(s.matchingsHandler.HandleMatchSync, "matchings_sync", s.logger))
	mux.HandleFunc("GET /matchings/{id}", MetricsMiddleware(s.matchingsHandler.HandleGetRun, "matchings_get", s.logger))
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

// classify maps an upstream error to its API kind, status and code.
func classify(err error) (kind error, status int, code string) {
	switch {
	case errors.Is(err, matching.ErrInsufficientParticipants),
		errors.Is(err, matching.ErrInvalidTargetSize),
		errors.Is(err, service.ErrInvalidRequest):
		return ErrUnprocessable, http.StatusUnprocessableEntity, "unprocessable"
	case errors.Is(err, service.ErrBusy):
		return ErrBackpressure, http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound, http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotStarted):
		return ErrUnavailable, http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrUnavailable, http.StatusServiceUnavailable, "timeout"
	default:
		return ErrInternal, http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err under op using the status its kind maps to.
func fail(w http.ResponseWriter, op string, err error) {
	kind, status, code := classify(err)
	writeError(w, status, code, WrapKind(op, kind, err))
}
