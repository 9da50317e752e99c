package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tablesink/pkg/model"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 2 * time.Second
	drainTimeout         = 10 * time.Second
)

// Dispatcher is the consumer of drained batches.
type Dispatcher interface {
	DispatchMany(ctx context.Context, recs []*model.Record) error
}

// Worker drains the queue in batches and hands them to the dispatcher.
type Worker struct {
	queue         Queue
	dispatcher    Dispatcher
	batchSize     int
	flushInterval time.Duration
	log           *zap.Logger
}

func NewWorker(q Queue, d Dispatcher, batchSize int, flushInterval time.Duration, log *zap.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}
	return &Worker{
		queue:         q,
		dispatcher:    d,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		log:           log,
	}
}

// Run loops until the context is cancelled, then drains what is still
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		default:
		}

		recs, err := w.queue.DequeueBatch(ctx, w.batchSize, w.flushInterval)
		if err != nil {
			if ctx.Err() != nil {
				w.drain()
				return nil
			}
			w.log.Error("failed to dequeue records", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		w.ship(ctx, recs)
	}
}

// drain flushes buffered records on shutdown, bounded by drainTimeout.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		recs, err := w.queue.DequeueBatch(ctx, w.batchSize, 0)
		if err != nil {
			w.log.Error("failed to drain queue", zap.Error(err))
			return
		}
		if len(recs) == 0 {
			return
		}
		w.ship(ctx, recs)
	}
}

func (w *Worker) ship(ctx context.Context, recs []*model.Record) {
	if len(recs) == 0 {
		return
	}

	if err := w.dispatcher.DispatchMany(ctx, recs); err != nil {
		// Dispatch failures must not vanish: the batch is lost at this
		// layer, which is always reported.
		w.log.Error("failed to dispatch batch",
			zap.Int("records", len(recs)),
			zap.Error(err),
		)
	}
}
