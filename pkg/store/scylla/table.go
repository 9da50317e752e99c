package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/pkg/errors"

	"tablesink/pkg/store"
)

var _ store.Store = (*Client)(nil)

// Destination names may contain '-', so identifiers are always quoted.
const (
	createTableStmt = `CREATE TABLE IF NOT EXISTS %s."%s" (
		id text PRIMARY KEY,
		ts timestamp,
		level text,
		source text,
		message text,
		fields map<text, text>
	)`
	insertStmt = `INSERT INTO %s."%s" (id, ts, level, source, message, fields) VALUES (?, ?, ?, ?, ?, ?)`
)

// Table returns a handle for one table in the configured keyspace.
func (c *Client) Table(name string) store.Table {
	return &table{
		session:  c.session,
		keyspace: c.config.Keyspace,
		name:     name,
	}
}

// Ping verifies the session is still usable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.session.Query(`SELECT release_version FROM system.local`).WithContext(ctx).Exec(); err != nil {
		return errors.Wrap(store.ErrPingFailed, err.Error())
	}
	return nil
}

type table struct {
	session  *gocql.Session
	keyspace string
	name     string
}

var _ store.Table = (*table)(nil)

func (t *table) Name() string {
	return t.name
}

func (t *table) CreateIfMissing(ctx context.Context) error {
	stmt := fmt.Sprintf(createTableStmt, t.keyspace, t.name)
	if err := t.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return errors.Wrapf(store.ErrProvisionFailed, "table %s: %v", t.name, err)
	}
	return nil
}

func (t *table) InsertOne(ctx context.Context, entry *store.Entry) error {
	stmt := fmt.Sprintf(insertStmt, t.keyspace, t.name)
	err := t.session.Query(stmt, columnValues(entry)...).WithContext(ctx).Exec()
	if err != nil {
		return errors.Wrapf(store.ErrInsertFailed, "table %s: %v", t.name, err)
	}
	return nil
}

func (t *table) InsertBatch(ctx context.Context, entries []*store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt := fmt.Sprintf(insertStmt, t.keyspace, t.name)
	batch := t.session.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, entry := range entries {
		batch.Query(stmt, columnValues(entry)...)
	}

	if err := t.session.ExecuteBatch(batch); err != nil {
		return errors.Wrapf(store.ErrInsertFailed, "table %s batch of %d: %v", t.name, len(entries), err)
	}
	return nil
}

func columnValues(entry *store.Entry) []any {
	return []any{entry.ID, entry.Timestamp, entry.Level, entry.Source, entry.Message, entry.Fields}
}
