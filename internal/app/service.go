// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okhandani/highstakes/internal/adapters/repository"
	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/internal/domain/ranking"
	"github.com/okhandani/highstakes/internal/domain/session"
	"github.com/okhandani/highstakes/pkg/logger"
)

// closeTimeout bounds the store drain during Stop.
const closeTimeout = 30 * time.Second

// Service wires the sharded bet store and the session manager behind the
// operations the HTTP API needs.
type Service struct {
	mu sync.RWMutex

	store    *repository.ShardedStore
	sessions *session.Manager

	// Configuration
	shardCount     int
	boardCapacity  int
	shardQueueSize int
	sessionTTL     time.Duration
	sessionCleanup time.Duration

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets the number of bet-store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithBoardCapacity sets the per-offer ranking capacity.
func WithBoardCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity != 0 {
			s.boardCapacity = capacity
		}
	}
}

// WithShardQueueSize sets the per-shard pending-task bound.
func WithShardQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.shardQueueSize = size
		}
	}
}

// WithSessionTTL sets the session validity window.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSessionCleanupInterval sets the expired-session reap interval.
func WithSessionCleanupInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sessionCleanup = interval
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount:     runtime.NumCPU(),
		boardCapacity:  ranking.DefaultCapacity,
		sessionTTL:     session.DefaultTTL,
		sessionCleanup: session.DefaultCleanupInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the store and the session manager.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	storeOpts := []repository.Option{
		repository.WithShardCount(s.shardCount),
		repository.WithBoardCapacity(s.boardCapacity),
		repository.WithLogger(s.logger),
	}
	if s.shardQueueSize > 0 {
		storeOpts = append(storeOpts, repository.WithQueueSize(s.shardQueueSize))
	}
	store, err := repository.NewShardedStore(storeOpts...)
	if err != nil {
		return err
	}
	s.store = store

	s.sessions = session.NewManager(
		session.WithTTL(s.sessionTTL),
		session.WithCleanupInterval(s.sessionCleanup),
	)

	s.started = true
	s.logger.Info(ctx, "betting service started",
		logger.Int("shards", s.shardCount),
		logger.Int("boardCapacity", s.boardCapacity),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop drains the store and releases the session manager.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := s.store.Close(ctx); err != nil {
		s.logger.Error(ctx, "store close failed", logger.Error(err))
	}
	if err := s.sessions.Close(); err != nil {
		s.logger.Error(ctx, "session manager close failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "betting service stopped")
}

// PlaceBet submits a bet, fire-and-forget.
func (s *Service) PlaceBet(ctx context.Context, bet model.Bet) {
	s.store.PlaceBet(ctx, bet)
}

// TopBets returns up to n bets for an offer, highest stakes first.
func (s *Service) TopBets(ctx context.Context, offer model.OfferID, n int) ([]model.Bet, error) {
	return s.store.TopBets(ctx, offer, n)
}

// Session returns the customer's session, issuing one when create is true.
func (s *Service) Session(_ context.Context, customer model.CustomerID, create bool) (session.Session, bool) {
	return s.sessions.Get(customer, create)
}

// ValidateSession resolves a session key to its customer, if still valid.
func (s *Service) ValidateSession(_ context.Context, key string) (model.CustomerID, bool) {
	return s.sessions.Validate(key)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"shardCount":    s.shardCount,
		"boardCapacity": s.boardCapacity,
	}
	if s.started {
		stats["offersTracked"] = s.store.OfferCount(context.Background())
		stats["activeSessions"] = s.sessions.Len()
	}
	return stats
}
