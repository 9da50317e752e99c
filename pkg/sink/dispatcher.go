package sink

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"tablesink/pkg/model"
	"tablesink/pkg/render"
	"tablesink/pkg/store"
)

// Dispatcher ships log records into a table-like store, grouping them by a
// destination name rendered from each record. It is safe for concurrent
// use; the destination cache is its only shared mutable state.
type Dispatcher struct {
	store     store.Store
	destTmpl  *render.Template
	msgTmpl   *render.Template
	sanitizer *Sanitizer
	cache     destCache
	log       *zap.Logger
}

// NewDispatcher builds a dispatcher. destTmpl derives each record's raw
// destination name. msgTmpl derives the stored message body and may be nil,
// in which case the record's message is stored as-is.
func NewDispatcher(st store.Store, destTmpl, msgTmpl *render.Template, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:     st,
		destTmpl:  destTmpl,
		msgTmpl:   msgTmpl,
		sanitizer: NewSanitizer(log),
		log:       log,
	}
}

// DispatchOne ships a single record. Records with an empty message carry no
// value and are dropped without touching the store; this is policy, not an
// error. Provisioning and insert failures propagate to the caller.
func (d *Dispatcher) DispatchOne(ctx context.Context, rec *model.Record) error {
	if rec.Message == "" {
		return nil
	}

	name := d.sanitizer.Sanitize(d.destTmpl.Render(rec))
	table, err := d.cache.ensure(ctx, d.store, name, d.log)
	if err != nil {
		return err
	}

	return table.InsertOne(ctx, d.entry(rec))
}

// DispatchMany ships a batch of records. Records are grouped by the RAW
// rendered destination key; sanitization happens per bucket afterwards, so
// raw keys that differ but sanitize to the same name still ship as separate
// buckets. Within a bucket, records go out in input order as sequential
// chunks of at most store.MaxBatchSize. A failing chunk aborts the rest of
// its bucket only; the remaining buckets are still attempted and all bucket
// errors are aggregated into the returned error.
func (d *Dispatcher) DispatchMany(ctx context.Context, recs []*model.Record) error {
	buckets := BucketSort(recs, func(rec *model.Record) string {
		return d.destTmpl.Render(rec)
	})

	var errs error
	for raw, bucket := range buckets {
		if err := d.dispatchBucket(ctx, raw, bucket); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (d *Dispatcher) dispatchBucket(ctx context.Context, raw string, recs []*model.Record) error {
	name := d.sanitizer.Sanitize(raw)
	table, err := d.cache.ensure(ctx, d.store, name, d.log)
	if err != nil {
		return err
	}

	for start := 0; start < len(recs); start += store.MaxBatchSize {
		end := min(start+store.MaxBatchSize, len(recs))

		entries := make([]*store.Entry, 0, end-start)
		for _, rec := range recs[start:end] {
			entries = append(entries, d.entry(rec))
		}

		if err := table.InsertBatch(ctx, entries); err != nil {
			return err
		}
	}

	return nil
}

func (d *Dispatcher) entry(rec *model.Record) *store.Entry {
	message := rec.Message
	if d.msgTmpl != nil {
		message = d.msgTmpl.Render(rec)
	}

	return &store.Entry{
		ID:        uuid.NewString(),
		Timestamp: rec.Time,
		Level:     rec.Level,
		Source:    rec.Source,
		Message:   message,
		Fields:    rec.Fields,
	}
}
