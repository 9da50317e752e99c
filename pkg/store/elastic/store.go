package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"

	"tablesink/pkg/settings"
	"tablesink/pkg/store"
)

// Store persists entries into Elasticsearch, one index per destination.
type Store struct {
	client esapi.Transport
}

var _ store.Store = (*Store)(nil)

// New creates a connected Elasticsearch store
func New(cfg *settings.Elasticsearch) (*Store, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(store.ErrConnectFailed, err.Error())
	}

	return &Store{client: client}, nil
}

// NewWithTransport builds a store over an existing transport. Used by tests.
func NewWithTransport(transport esapi.Transport) *Store {
	return &Store{client: transport}
}

// Table returns a handle for one index. Index names must be lowercase, a
// store naming rule applied here rather than in the sanitizer.
func (s *Store) Table(name string) store.Table {
	return &index{
		client: s.client,
		name:   strings.ToLower(name),
	}
}

// Ping verifies the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := esapi.PingRequest{}.Do(ctx, s.client)
	if err != nil {
		return errors.Wrap(store.ErrPingFailed, err.Error())
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Wrap(store.ErrPingFailed, res.Status())
	}
	return nil
}

// Close is a no-op; the underlying transport has no resources to release.
func (s *Store) Close() {}

type index struct {
	client esapi.Transport
	name   string
}

var _ store.Table = (*index)(nil)

func (i *index) Name() string {
	return i.name
}

func (i *index) CreateIfMissing(ctx context.Context) error {
	res, err := esapi.IndicesCreateRequest{Index: i.name}.Do(ctx, i.client)
	if err != nil {
		return errors.Wrapf(store.ErrProvisionFailed, "index %s: %v", i.name, err)
	}
	defer res.Body.Close()

	// 400 resource_already_exists_exception is the idempotent success path.
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return errors.Wrapf(store.ErrProvisionFailed, "index %s: %s", i.name, res.Status())
	}
	return nil
}

func (i *index) InsertOne(ctx context.Context, entry *store.Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrapf(store.ErrInsertFailed, "index %s: %v", i.name, err)
	}

	res, err := esapi.IndexRequest{
		Index:      i.name,
		DocumentID: entry.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, i.client)
	if err != nil {
		return errors.Wrapf(store.ErrInsertFailed, "index %s: %v", i.name, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Wrapf(store.ErrInsertFailed, "index %s: %s", i.name, res.Status())
	}
	return nil
}

// bulkAction is one NDJSON metadata line of a _bulk request body.
type bulkAction struct {
	Index bulkIndexMeta `json:"index"`
}

type bulkIndexMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

func (i *index) InsertBatch(ctx context.Context, entries []*store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, entry := range entries {
		meta, err := json.Marshal(bulkAction{Index: bulkIndexMeta{Index: i.name, ID: entry.ID}})
		if err != nil {
			return errors.Wrapf(store.ErrInsertFailed, "index %s: %v", i.name, err)
		}
		buf.Write(meta)
		buf.WriteByte('\n')

		data, err := json.Marshal(entry)
		if err != nil {
			return errors.Wrapf(store.ErrInsertFailed, "index %s: %v", i.name, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	res, err := esapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}.Do(ctx, i.client)
	if err != nil {
		return errors.Wrapf(store.ErrInsertFailed, "index %s bulk of %d: %v", i.name, len(entries), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Wrapf(store.ErrInsertFailed, "index %s bulk of %d: %s", i.name, len(entries), res.Status())
	}
	return nil
}
