package repository

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/internal/domain/ranking"
	"github.com/okhandani/highstakes/pkg/logger"
	"github.com/okhandani/highstakes/pkg/metrics"
)

// defaultQueueSize bounds each shard's pending-task channel.
const defaultQueueSize = 65536

// ShardedStore implements Store over a fixed pool of single-goroutine
// shards. An offer is hashed to a shard once per operation and the mapping
// never changes, so all operations for one offer execute FIFO on one
// goroutine: per-offer ordering without any lock around the boards.
//
// The board registry is the only state touched from more than one shard,
// and only for the create-if-absent on an offer's first bet. A board, once
// created, is mutated exclusively by its owning shard.
type ShardedStore struct {
	shards     []*shard
	boards     sync.Map // model.OfferID -> *ranking.Board
	shardCount int
	capacity   int
	queueSize  int
	offerCount atomic.Int64

	mu     sync.RWMutex
	closed bool

	logger logger.Logger
}

// NewShardedStore constructs the store and starts its shard goroutines.
func NewShardedStore(opts ...Option) (*ShardedStore, error) {
	s := &ShardedStore{
		shardCount: runtime.NumCPU(),
		capacity:   ranking.DefaultCapacity,
		queueSize:  defaultQueueSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.capacity < 1 || s.capacity > ranking.MaxCapacity {
		return nil, fmt.Errorf("board capacity %d: %w", s.capacity, ranking.ErrInvalidCapacity)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("store")
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = newShard(i, s.queueSize, s.logger)
		go s.shards[i].run()
	}
	return s, nil
}

// PlaceBet implements Store.PlaceBet. The submission is non-blocking: a
// full shard queue or a closed store drops the bet with a log line and a
// metric, never an error to the caller.
func (s *ShardedStore) PlaceBet(ctx context.Context, bet model.Bet) {
	metrics.RecordBetPlaced()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.RecordBetDropped()
		s.logger.Warn(ctx, "store closed, dropping bet",
			logger.Int64("offer", int64(bet.Offer)),
			logger.Int64("customer", int64(bet.Customer)),
		)
		return
	}

	sh := s.shardFor(bet.Offer)
	t := task{offer: bet.Offer, fn: func() { s.applyBet(bet) }}
	select {
	case sh.tasks <- t:
		metrics.UpdateShardQueueDepth(sh.name, len(sh.tasks))
	default:
		metrics.RecordBetDropped()
		s.logger.Error(ctx, "shard queue full, dropping bet",
			logger.Int("shard", sh.id),
			logger.Int64("offer", int64(bet.Offer)),
		)
	}
}

// TopBets implements Store.TopBets. Only the calling goroutine blocks,
// waiting for its own task's reply; the shard keeps draining its queue for
// everyone else.
func (s *ShardedStore) TopBets(ctx context.Context, offer model.OfferID, n int) ([]model.Bet, error) {
	if n < 0 {
		return nil, fmt.Errorf("limit %d: %w", n, ErrInvalidLimit)
	}

	metrics.RecordQuery()
	start := time.Now()
	defer func() {
		metrics.RecordQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrClosed
	}

	sh := s.shardFor(offer)
	reply := make(chan []model.Bet, 1)
	t := task{offer: offer, fn: func() { reply <- s.collectTop(offer, n) }}

	// Queries are never dropped; wait for queue space if the shard is busy.
	select {
	case sh.tasks <- t:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return nil, fmt.Errorf("submit query: %w", ctx.Err())
	}

	select {
	case bets := <-reply:
		return bets, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("await query: %w", ctx.Err())
	}
}

// OfferCount implements Store.OfferCount.
func (s *ShardedStore) OfferCount(_ context.Context) int {
	return int(s.offerCount.Load())
}

// Close stops intake, then waits for every shard to drain the tasks it had
// already accepted. The ctx deadline bounds the wait.
func (s *ShardedStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, sh := range s.shards {
		close(sh.tasks)
	}
	s.mu.Unlock()

	for _, sh := range s.shards {
		select {
		case <-sh.done:
		case <-ctx.Done():
			s.logger.Warn(ctx, "shard drain timed out", logger.Int("shard", sh.id))
			return fmt.Errorf("drain shards: %w", ctx.Err())
		}
	}
	return nil
}

// applyBet runs on the owning shard.
func (s *ShardedStore) applyBet(bet model.Bet) {
	if s.board(bet.Offer).AddOrUpdate(bet.Customer, bet.Stake) {
		metrics.RecordBetAccepted()
	} else {
		metrics.RecordBetRejected()
	}
}

// collectTop runs on the owning shard.
func (s *ShardedStore) collectTop(offer model.OfferID, n int) []model.Bet {
	v, ok := s.boards.Load(offer)
	if !ok {
		return []model.Bet{}
	}
	b := v.(*ranking.Board)
	out := make([]model.Bet, 0, min(n, b.Len()))
	for customer, stake := range b.TopN(n) {
		out = append(out, model.Bet{Offer: offer, Customer: customer, Stake: stake})
	}
	return out
}

// board fetches or lazily creates the offer's ranking board. Creation races
// between shards on the registry itself are resolved by LoadOrStore; the
// winning board is only ever mutated by this offer's shard afterwards.
func (s *ShardedStore) board(offer model.OfferID) *ranking.Board {
	if v, ok := s.boards.Load(offer); ok {
		return v.(*ranking.Board)
	}
	fresh, err := ranking.New(s.capacity)
	if err != nil {
		// Capacity was validated at construction.
		panic(err)
	}
	v, loaded := s.boards.LoadOrStore(offer, fresh)
	if !loaded {
		metrics.UpdateOffersTracked(int(s.offerCount.Add(1)))
	}
	return v.(*ranking.Board)
}

// shardFor routes an offer to its fixed shard.
func (s *ShardedStore) shardFor(offer model.OfferID) *shard {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(offer))
	return s.shards[xxhash.Sum64(key[:])%uint64(len(s.shards))]
}
