// Package repository implements the sharded bet store.
package repository

import (
	"github.com/okhandani/highstakes/pkg/logger"
)

// Option applies a configuration option to the ShardedStore.
type Option func(*ShardedStore)

// WithShardCount sets the number of shards. Defaults to runtime.NumCPU().
func WithShardCount(count int) Option {
	return func(s *ShardedStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithBoardCapacity sets the per-offer ranking capacity.
func WithBoardCapacity(capacity int) Option {
	return func(s *ShardedStore) {
		if capacity != 0 {
			s.capacity = capacity
		}
	}
}

// WithQueueSize sets the per-shard pending-task bound.
func WithQueueSize(size int) Option {
	return func(s *ShardedStore) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *ShardedStore) {
		if log != nil {
			s.logger = log
		}
	}
}
