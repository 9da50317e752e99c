package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tablesink/pkg/model"
	"tablesink/pkg/queue"
	"tablesink/pkg/settings"
)

// KafkaSource consumes JSON-encoded log records from Kafka topics and
// buffers them in the queue. Offsets are marked only after a record has
// been enqueued; undecodable messages are logged, marked and skipped.
type KafkaSource struct {
	group  sarama.ConsumerGroup
	topics []string
	queue  queue.Queue
	log    *zap.Logger
}

// NewKafkaSource joins the configured consumer group.
func NewKafkaSource(cfg *settings.Kafka, q queue.Queue, log *zap.Logger) (*KafkaSource, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = false
	if cfg.Timeout > 0 {
		sc.Net.DialTimeout = time.Duration(cfg.Timeout) * time.Second
	}

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, sc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to join consumer group")
	}

	return &KafkaSource{
		group:  group,
		topics: cfg.Topics,
		queue:  q,
		log:    log,
	}, nil
}

// Run consumes until the context is cancelled. Consume returns on every
// rebalance, so it loops.
func (k *KafkaSource) Run(ctx context.Context) error {
	handler := &groupHandler{queue: k.queue, log: k.log}

	for {
		if err := k.group.Consume(ctx, k.topics, handler); err != nil {
			if ctx.Err() != nil {
				break
			}
			k.log.Error("consumer group session failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			break
		}
	}

	return k.group.Close()
}

type groupHandler struct {
	queue queue.Queue
	log   *zap.Logger
}

var _ sarama.ConsumerGroupHandler = (*groupHandler)(nil)

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var rec model.Record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			h.log.Warn("skipping undecodable record",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			sess.MarkMessage(msg, "")
			continue
		}

		if err := h.queue.Enqueue(sess.Context(), &rec); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
