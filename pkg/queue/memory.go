package queue

import (
	"context"
	"sync"
	"time"

	"tablesink/pkg/model"
)

const defaultCapacity = 8192

// MemoryQueue is a channel-backed queue. Nothing survives a restart.
type MemoryQueue struct {
	ch     chan *model.Record
	done   chan struct{}
	closed sync.Once
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an in-memory queue. A non-positive capacity picks
// the default.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryQueue{
		ch:   make(chan *model.Record, capacity),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, rec *model.Record) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- rec:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) DequeueBatch(ctx context.Context, max int, wait time.Duration) ([]*model.Record, error) {
	if max <= 0 {
		return nil, nil
	}

	var recs []*model.Record

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case rec := <-q.ch:
			recs = append(recs, rec)
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for len(recs) < max {
		select {
		case rec := <-q.ch:
			recs = append(recs, rec)
		default:
			return recs, nil
		}
	}
	return recs, nil
}

func (q *MemoryQueue) Length(context.Context) (int, error) {
	return len(q.ch), nil
}

func (q *MemoryQueue) Close() error {
	q.closed.Do(func() { close(q.done) })
	return nil
}
