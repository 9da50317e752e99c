package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	redisV9 "github.com/redis/go-redis/v9"

	"tablesink/pkg/model"
	"tablesink/pkg/settings"
)

const (
	defaultPoolSize        = 10
	defaultMinIdleConns    = 5
	defaultDialTimeout     = 5
	defaultReadTimeout     = 3
	defaultWriteTimeout    = 3
	defaultMaxRetries      = 3
	defaultMinRetryBackoff = 300 // millis
	defaultMaxRetryBackoff = 500 // millis

	defaultQueueKey = "tablesink:records"
)

// RedisQueue is a Redis-list-backed queue of JSON-encoded records.
type RedisQueue struct {
	client *redisV9.Client
	config *settings.Redis
	key    string
}

var _ Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to Redis and returns a queue over the configured
// list key.
func NewRedisQueue(cfg *settings.Redis) (*RedisQueue, error) {
	q := &RedisQueue{config: cfg, key: cfg.QueueKey}
	if q.key == "" {
		q.key = defaultQueueKey
	}
	q.setDefaultConfig()

	q.client = redisV9.NewClient(&redisV9.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.Database,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxRetries:      cfg.MaxRetries,
		DialTimeout:     time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:     time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.WriteTimeout) * time.Second,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoff) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoff) * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return q, nil
}

func (q *RedisQueue) setDefaultConfig() {
	if q.config.PoolSize == 0 {
		q.config.PoolSize = defaultPoolSize
	}
	if q.config.MinIdleConns == 0 {
		q.config.MinIdleConns = defaultMinIdleConns
	}
	if q.config.DialTimeout == 0 {
		q.config.DialTimeout = defaultDialTimeout
	}
	if q.config.ReadTimeout == 0 {
		q.config.ReadTimeout = defaultReadTimeout
	}
	if q.config.WriteTimeout == 0 {
		q.config.WriteTimeout = defaultWriteTimeout
	}
	if q.config.MaxRetries == 0 {
		q.config.MaxRetries = defaultMaxRetries
	}
	if q.config.MinRetryBackoff == 0 {
		q.config.MinRetryBackoff = defaultMinRetryBackoff
	}
	if q.config.MaxRetryBackoff == 0 {
		q.config.MaxRetryBackoff = defaultMaxRetryBackoff
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, rec *model.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(ErrEncode, err.Error())
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) DequeueBatch(ctx context.Context, max int, wait time.Duration) ([]*model.Record, error) {
	if max <= 0 {
		return nil, nil
	}

	var recs []*model.Record

	if wait > 0 {
		// BRPOP blocks for the first record only; the rest of the batch is
		// drained without waiting.
		res, err := q.client.BRPop(ctx, wait, q.key).Result()
		if err == redisV9.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		rec, err := decode(res[1])
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	for len(recs) < max {
		raw, err := q.client.RPop(ctx, q.key).Result()
		if err == redisV9.Nil {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}

		rec, err := decode(raw)
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	return int(n), err
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func decode(raw string) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	return &rec, nil
}
