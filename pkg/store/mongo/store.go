package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tablesink/pkg/settings"
	"tablesink/pkg/store"
)

const (
	defaultPort    = 27017
	defaultTimeout = 10

	namespaceExistsCode = 48
)

// Store persists entries into MongoDB, one collection per destination.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	config *settings.MongoDB
}

var _ store.Store = (*Store)(nil)

// New creates a connected MongoDB store
func New(cfg *settings.MongoDB) (*Store, error) {
	s := &Store{config: cfg}
	s.setDefaultConfig()

	uri := fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Second)
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Timeout)*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrConnectFailed, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %v", store.ErrPingFailed, err)
	}

	s.client = client
	s.db = client.Database(cfg.Database)
	return s, nil
}

func (s *Store) setDefaultConfig() {
	if s.config.Port == 0 {
		s.config.Port = defaultPort
	}
	if s.config.Timeout == 0 {
		s.config.Timeout = defaultTimeout
	}
}

// Table returns a handle for one collection.
func (s *Store) Table(name string) store.Table {
	return &collection{db: s.db, name: name}
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", store.ErrPingFailed, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

type collection struct {
	db   *mongo.Database
	name string
}

var _ store.Table = (*collection)(nil)

func (c *collection) Name() string {
	return c.name
}

func (c *collection) CreateIfMissing(ctx context.Context) error {
	err := c.db.CreateCollection(ctx, c.name)
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode {
		return nil
	}
	return fmt.Errorf("%w: collection %s: %v", store.ErrProvisionFailed, c.name, err)
}

func (c *collection) InsertOne(ctx context.Context, entry *store.Entry) error {
	if _, err := c.db.Collection(c.name).InsertOne(ctx, document(entry)); err != nil {
		return fmt.Errorf("%w: collection %s: %v", store.ErrInsertFailed, c.name, err)
	}
	return nil
}

func (c *collection) InsertBatch(ctx context.Context, entries []*store.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, len(entries))
	for i, entry := range entries {
		docs[i] = document(entry)
	}

	opts := options.InsertMany().SetOrdered(true)
	if _, err := c.db.Collection(c.name).InsertMany(ctx, docs, opts); err != nil {
		return fmt.Errorf("%w: collection %s batch of %d: %v", store.ErrInsertFailed, c.name, len(entries), err)
	}
	return nil
}

func document(entry *store.Entry) bson.M {
	return bson.M{
		"_id":     entry.ID,
		"ts":      entry.Timestamp,
		"level":   entry.Level,
		"source":  entry.Source,
		"message": entry.Message,
		"fields":  entry.Fields,
	}
}
