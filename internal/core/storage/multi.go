package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
)

// MultiSink delivers each alert to every configured sink.
// All sinks are attempted and failures are joined into one error.
// ErrDuplicate from a sink counts as delivered.
type MultiSink struct {
	sinks []namedSink
}

type namedSink struct {
	name string
	sink AlertSink
}

func NewMultiSink() *MultiSink {
	return &MultiSink{}
}

// Add registers a sink under a name used in errors and logs. Nil sinks are ignored.
func (m *MultiSink) Add(name string, sink AlertSink) *MultiSink {
	if sink != nil {
		m.sinks = append(m.sinks, namedSink{name: name, sink: sink})
	}
	return m
}

// Len returns the number of registered sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) SaveAlert(ctx context.Context, alert *v1.Alert) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.SaveAlert(ctx, alert); err != nil && !errors.Is(err, ErrDuplicate) {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes alerts to the structured log. Used when no durable sink is configured.
type LogSink struct{}

func (LogSink) SaveAlert(_ context.Context, alert *v1.Alert) error {
	slog.Warn("[Alerts] Alert triggered",
		"alert_id", alert.ID,
		"rule_id", alert.RuleID,
		"device_id", alert.DeviceID,
		"kind", alert.Kind,
		"observed_size", alert.ObservedSize,
		"condition", alert.Condition,
		"correlation_id", alert.CorrelationID)
	return nil
}
