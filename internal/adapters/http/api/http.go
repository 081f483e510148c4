// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/internal/domain/session"
)

// Dependencies required by HTTP handlers. The interface bundle keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// PlaceBet submits a bet for async processing, fire-and-forget.
	PlaceBet(ctx context.Context, bet model.Bet)

	// TopBets returns up to n bets for an offer, highest stakes first.
	TopBets(ctx context.Context, offer model.OfferID, n int) ([]model.Bet, error)

	// Session returns the customer's session, issuing one when create is true.
	Session(ctx context.Context, customer model.CustomerID, create bool) (session.Session, bool)

	// ValidateSession resolves a session key to its customer, if still valid.
	ValidateSession(ctx context.Context, key string) (model.CustomerID, bool)
}

// Server wires HTTP routes for the business API.
type Server struct {
	sessionHandler    *SessionHandler
	stakeHandler      *StakeHandler
	highStakesHandler *HighStakesHandler
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		sessionHandler: NewSessionHandler(deps),
		stakeHandler:   NewStakeHandler(deps),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
	}

	cfg := serverConfig{defaultTopN: defaultTopN, maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	s.highStakesHandler = NewHighStakesHandler(deps, cfg.defaultTopN, cfg.maxLimit)

	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /{customerID}/session", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("POST /{offerID}/stake", MetricsMiddleware(s.stakeHandler.HandlePostStake, "stake"))
	mux.HandleFunc("GET /{offerID}/highstakes", MetricsMiddleware(s.highStakesHandler.HandleGetHighStakes, "highstakes"))
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// writeText writes a plain-text response. The betting endpoints speak
// text, not JSON; an empty body is a valid result for highstakes.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
