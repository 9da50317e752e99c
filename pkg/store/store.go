package store

import (
	"context"
	"time"
)

// MaxBatchSize is the largest batch a Table implementation must accept in a
// single InsertBatch call. The dispatcher never sends more.
const MaxBatchSize = 100

// Entry is the persisted form of a log record: the rendered message body
// plus the record's structured fields, flattened for table-like stores.
type Entry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Source    string            `json:"source,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Table is a handle to one destination (table, index or collection) in the
// remote store.
type Table interface {
	// Name returns the sanitized destination name the handle is bound to.
	Name() string
	// CreateIfMissing provisions the destination. It is idempotent.
	CreateIfMissing(ctx context.Context) error
	// InsertOne persists a single entry.
	InsertOne(ctx context.Context, entry *Entry) error
	// InsertBatch persists up to MaxBatchSize entries in one remote call.
	InsertBatch(ctx context.Context, entries []*Entry) error
}

// Store is a connected remote store that hands out destination handles.
// Handing out a handle performs no remote call.
type Store interface {
	Table(name string) Table
	Ping(ctx context.Context) error
	Close()
}
