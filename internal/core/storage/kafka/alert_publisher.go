package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

var (
	ErrPublisherClosed = errors.New("alert publisher is closed")
	ErrSerializeFailed = errors.New("failed to serialize alert")
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherConfig configures the alert topic writer.
type PublisherConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Compression  string // none | gzip | snappy | lz4 | zstd
	RequiredAcks int    // -1 all, 0 none, 1 leader
}

// AlertPublisher publishes alerts as JSON to a Kafka topic, keyed by device
// so one device's alerts stay ordered on a partition. It implements storage.AlertSink.
type AlertPublisher struct {
	writer       messageWriter
	topic        string
	maxRetries   int
	retryBackoff time.Duration
	closed       atomic.Bool

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewAlertPublisher builds a synchronous kafka.Writer for the alert topic.
func NewAlertPublisher(cfg PublisherConfig) (*AlertPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("alert topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  compression(cfg.Compression),
		// Retries are handled by publishWithRetry.
		MaxAttempts: 1,
	}

	return newAlertPublisher(writer, cfg), nil
}

func newAlertPublisher(w messageWriter, cfg PublisherConfig) *AlertPublisher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &AlertPublisher{
		writer:       w,
		topic:        cfg.Topic,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
	}
}

func compression(name string) compress.Compression {
	switch name {
	case "gzip":
		return compress.Gzip
	case "snappy":
		return compress.Snappy
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.None
	}
}

// SaveAlert publishes one alert.
func (p *AlertPublisher) SaveAlert(ctx context.Context, alert *v1.Alert) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	data, err := json.Marshal(alert)
	if err != nil {
		p.failed.Add(1)
		return fmt.Errorf("%w: %v", ErrSerializeFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(alert.DeviceID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(alert.ID)},
			{Key: "rule_id", Value: []byte(alert.RuleID)},
			{Key: "kind", Value: []byte(alert.Kind)},
			{Key: "correlation_id", Value: []byte(alert.CorrelationID)},
		},
		Time: alert.TriggeredAt,
	}

	if err := p.publishWithRetry(ctx, msg); err != nil {
		p.failed.Add(1)
		return err
	}

	p.published.Add(1)
	return nil
}

// publishWithRetry writes msg with exponential backoff between attempts.
func (p *AlertPublisher) publishWithRetry(ctx context.Context, msg kafka.Message) error {
	var lastErr error
	backoff := p.retryBackoff

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("[KafkaAlerts] Retrying publish",
				"topic", p.topic,
				"attempt", attempt,
				"backoff", backoff)

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	slog.Error("[KafkaAlerts] Publish failed after all retries",
		"topic", p.topic,
		"attempts", p.maxRetries+1,
		"error", lastErr)

	return fmt.Errorf("failed after %d attempts: %w", p.maxRetries+1, lastErr)
}

// Stats returns the number of alerts published and failed since start.
func (p *AlertPublisher) Stats() (published, failed uint64) {
	return p.published.Load(), p.failed.Load()
}

// Close flushes and closes the writer. Later SaveAlert calls return ErrPublisherClosed.
func (p *AlertPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close alert writer: %w", err)
	}
	slog.Info("[KafkaAlerts] Publisher closed", "topic", p.topic)
	return nil
}
