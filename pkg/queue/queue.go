// Package queue buffers incoming log records between the ingest surfaces
// and the shipping worker. Two backends exist: an in-memory channel queue
// for standalone deployments, and a Redis-list queue that survives restarts
// and supports multiple shipper processes.
package queue

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"tablesink/pkg/model"
)

var (
	ErrQueueClosed = errors.New("queue is closed")
	ErrEncode      = errors.New("failed to encode record")
	ErrDecode      = errors.New("failed to decode record")
)

// Queue is a FIFO buffer of log records.
type Queue interface {
	// Enqueue adds a record, blocking while the queue is full.
	Enqueue(ctx context.Context, rec *model.Record) error

	// DequeueBatch removes up to max records. When the queue is empty it
	// waits up to wait for the first record; a non-positive wait makes the
	// call non-blocking. An empty result with a nil error is normal.
	DequeueBatch(ctx context.Context, max int, wait time.Duration) ([]*model.Record, error)

	// Length reports the number of buffered records.
	Length(ctx context.Context) (int, error)

	// Close shuts the queue down. Buffered records stay readable.
	Close() error
}
