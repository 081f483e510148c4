package repository

import (
	"context"
	"strconv"

	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/pkg/logger"
	"github.com/okhandani/highstakes/pkg/metrics"
)

// task is one unit of work bound to a shard. The offer rides along so a
// failure can be logged with context.
type task struct {
	offer model.OfferID
	fn    func()
}

// shard is a strictly sequential execution context. One goroutine drains
// tasks in submission order, which is what serializes all operations for
// the offers routed here.
type shard struct {
	id     int
	name   string
	tasks  chan task
	done   chan struct{}
	logger logger.Logger
}

func newShard(id, queueSize int, log logger.Logger) *shard {
	return &shard{
		id:     id,
		name:   strconv.Itoa(id),
		tasks:  make(chan task, queueSize),
		done:   make(chan struct{}),
		logger: log.Named("shard-" + strconv.Itoa(id)),
	}
}

// run drains the task queue until it is closed, then finishes any tasks
// already accepted. Started once per shard from the store constructor.
func (s *shard) run() {
	defer close(s.done)
	for t := range s.tasks {
		s.execute(t)
	}
}

// execute runs one task inside a recovery boundary. A failing task is
// logged and dropped; it is not retried and does not affect queued tasks.
func (s *shard) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordShardTaskPanic()
			s.logger.Error(context.Background(), "task failed",
				logger.Int("shard", s.id),
				logger.Int64("offer", int64(t.offer)),
				logger.Any("panic", r),
			)
		}
	}()
	t.fn()
}
