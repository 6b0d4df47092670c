package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/engine"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Processor is the engine surface the consumer drives.
type Processor interface {
	OnEnvelope(ctx context.Context, env v1.Envelope) ([]v1.Alert, error)
	Redeliver(ctx context.Context, alerts []v1.Alert) error
}

// messageReader is the subset of *kafka.Reader the consumer needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures the envelope topic readers.
type Config struct {
	Brokers      []string
	Topic        string
	GroupID      string
	Consumers    int
	MinBytes     int
	MaxBytes     int
	MaxWait      time.Duration
	RetryBackoff time.Duration

	// ProtoMessage, when set, is the message type of application/x-protobuf bodies.
	ProtoMessage protoreflect.MessageDescriptor
}

// Consumer feeds envelopes from a Kafka consumer group into the engine.
// Each reader processes its partitions sequentially and commits a message only
// after its alerts were delivered, giving at-least-once semantics.
type Consumer struct {
	readers      []messageReader
	proc         Processor
	decoder      *Decoder
	topic        string
	retryBackoff time.Duration
	now          func() time.Time

	processed atomic.Uint64
	skipped   atomic.Uint64
	failed    atomic.Uint64
}

// New creates cfg.Consumers readers in one consumer group.
func New(cfg Config, proc Processor) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("envelope topic is required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New("consumer group id is required")
	}
	if cfg.Consumers <= 0 {
		cfg.Consumers = 1
	}

	readers := make([]messageReader, 0, cfg.Consumers)
	for i := 0; i < cfg.Consumers; i++ {
		readers = append(readers, kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    cfg.Topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
			MaxWait:  cfg.MaxWait,
			// Synchronous commits: CommitMessages returns once the offset is stored.
			CommitInterval: 0,
		}))
	}

	c := newConsumer(readers, proc, cfg.Topic, cfg.RetryBackoff)
	c.decoder = NewDecoder(cfg.ProtoMessage)
	return c, nil
}

func newConsumer(readers []messageReader, proc Processor, topic string, retryBackoff time.Duration) *Consumer {
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}
	return &Consumer{
		readers:      readers,
		proc:         proc,
		decoder:      NewDecoder(nil),
		topic:        topic,
		retryBackoff: retryBackoff,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start runs every reader until ctx is cancelled, then closes them.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("[KafkaConsumer] Starting", "topic", c.topic, "readers", len(c.readers))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range c.readers {
		g.Go(func() error { return c.run(gctx, i, r) })
	}
	err := g.Wait()

	for _, r := range c.readers {
		if cerr := r.Close(); cerr != nil {
			slog.Warn("[KafkaConsumer] Failed to close reader", "error", cerr)
		}
	}

	processed, skipped, failed := c.Stats()
	slog.Info("[KafkaConsumer] Stopped",
		"topic", c.topic,
		"processed", processed,
		"skipped", skipped,
		"delivery_failures", failed)
	return err
}

func (c *Consumer) run(ctx context.Context, id int, r messageReader) error {
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("[KafkaConsumer] Fetch failed", "reader", id, "error", err)
			if !sleep(ctx, c.retryBackoff) {
				return nil
			}
			continue
		}

		if !c.handle(ctx, msg) {
			// Cancelled before delivery succeeded; leave the offset uncommitted.
			return nil
		}

		if err := r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("[KafkaConsumer] Commit failed",
				"reader", id,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err)
		}
	}
}

// handle processes one message and reports whether it may be committed.
// Undecodable or invalid envelopes are committed so they cannot wedge the
// partition. Delivery failures are retried until success or cancellation.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	env, err := c.decoder.Decode(header(msg, headerContentType), msg.Value)
	if err != nil {
		c.skipped.Add(1)
		slog.Warn("[KafkaConsumer] Skipping undecodable message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err)
		return true
	}
	if env.IngestedAt.IsZero() {
		env.IngestedAt = c.now()
	}

	alerts, err := c.proc.OnEnvelope(ctx, env)
	switch {
	case err == nil:
		c.processed.Add(1)
		return true
	case errors.Is(err, engine.ErrInvalidEnvelope):
		c.skipped.Add(1)
		slog.Warn("[KafkaConsumer] Skipping invalid envelope",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err)
		return true
	}

	c.failed.Add(1)
	slog.Error("[KafkaConsumer] Alert delivery failed, retrying",
		"device_id", env.DeviceID,
		"correlation_id", env.CorrelationID,
		"alerts", len(alerts),
		"error", err)

	backoff := c.retryBackoff
	for {
		if !sleep(ctx, backoff) {
			return false
		}
		err := c.proc.Redeliver(ctx, alerts)
		if err == nil {
			c.processed.Add(1)
			return true
		}
		slog.Error("[KafkaConsumer] Redelivery failed",
			"device_id", env.DeviceID,
			"backoff", backoff,
			"error", err)
		if backoff < time.Minute {
			backoff *= 2
		}
	}
}

// Stats returns message counters since start.
func (c *Consumer) Stats() (processed, skipped, failed uint64) {
	return c.processed.Load(), c.skipped.Load(), c.failed.Load()
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
