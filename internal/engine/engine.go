package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/core/rules"
	"github.com/aevon-lab/rule-engine/internal/core/storage"
	"github.com/aevon-lab/rule-engine/internal/core/window"
)

var (
	// ErrInvalidEnvelope marks envelopes rejected before any state change.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrDelivery marks alert hand-off failures. The window already reflects the
	// envelope; callers decide whether to redeliver.
	ErrDelivery = errors.New("alert delivery failed")
)

// Engine evaluates the instant and window rules for each envelope and hands
// fired alerts to the sink. It is safe for concurrent use.
type Engine struct {
	def            rules.Definition
	store          *window.Store
	sink           storage.AlertSink
	observer       Observer
	clock          Clock
	deliverTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithDeliverTimeout bounds each sink hand-off. Zero leaves the caller's context as is.
func WithDeliverTimeout(d time.Duration) Option {
	return func(e *Engine) { e.deliverTimeout = d }
}

// New wires an engine. store must be built from the same definition's window
// size and age.
func New(def rules.Definition, store *window.Store, sink storage.AlertSink, opts ...Option) (*Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("engine: window store must not be nil")
	}
	if sink == nil {
		return nil, errors.New("engine: alert sink must not be nil")
	}
	if store.Size() != def.WindowSize {
		return nil, fmt.Errorf("engine: window store size %d does not match rule window_size %d", store.Size(), def.WindowSize)
	}

	e := &Engine{
		def:      def,
		store:    store,
		sink:     sink,
		observer: nopObserver{},
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewStore builds the window store matching a rule definition.
func NewStore(def rules.Definition) (*window.Store, error) {
	return window.NewStore(def.WindowSize, def.MaxWindowAge, window.WithRefireWhileFull(def.RefireWhileFull))
}

// Definition returns the rule definition the engine evaluates.
func (e *Engine) Definition() rules.Definition { return e.def }

// Store exposes the window store for read-only inspection and the janitor.
func (e *Engine) Store() *window.Store { return e.store }

// OnEnvelope validates env, evaluates the instant rule, appends env to its
// device window, evaluates the window rule, and delivers any alerts.
//
// Fired alerts are returned even when delivery fails; in that case the error
// wraps ErrDelivery. Validation failures wrap ErrInvalidEnvelope and leave the
// store untouched.
func (e *Engine) OnEnvelope(ctx context.Context, env v1.Envelope) ([]v1.Alert, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	start := time.Now()
	now := e.clock.Now()

	var fired []v1.Alert
	if alert, ok := e.def.EvaluateInstant(env, now); ok {
		fired = append(fired, alert)
	}

	snap := e.store.Append(env.DeviceID, env, now, e.def.WindowSatisfied)
	if snap.Fired {
		fired = append(fired, e.def.WindowAlert(env, snap.Len(), now))
	}

	safeObserve("EvaluationObserved", func() { e.observer.EvaluationObserved(time.Since(start)) })
	safeObserve("EnvelopeProcessed", func() { e.observer.EnvelopeProcessed(env.DeviceID) })
	for i := range fired {
		kind, device := fired[i].Kind, fired[i].DeviceID
		safeObserve("AlertFired", func() { e.observer.AlertFired(kind, device) })
	}

	if len(fired) == 0 {
		return nil, nil
	}
	return fired, e.deliver(ctx, fired)
}

// Redeliver retries the hand-off of alerts returned by a failed OnEnvelope call
// without touching the window. Alert ids are stable, so sinks that key on them
// absorb alerts that were already stored.
func (e *Engine) Redeliver(ctx context.Context, alerts []v1.Alert) error {
	return e.deliver(ctx, alerts)
}

// deliver hands every alert to the sink, attempting all of them even after a failure.
func (e *Engine) deliver(ctx context.Context, alerts []v1.Alert) error {
	var errs []error
	for i := range alerts {
		alert := &alerts[i]
		if err := e.save(ctx, alert); err != nil {
			slog.Error("[Engine] Alert delivery failed",
				"alert_id", alert.ID,
				"rule_id", alert.RuleID,
				"device_id", alert.DeviceID,
				"correlation_id", alert.CorrelationID,
				"error", err)
			errs = append(errs, fmt.Errorf("alert %s (%s): %w", alert.ID, alert.RuleID, err))
			continue
		}

		slog.Info("[Engine] Alert triggered",
			"alert_id", alert.ID,
			"rule_id", alert.RuleID,
			"kind", alert.Kind,
			"device_id", alert.DeviceID,
			"observed_size", alert.ObservedSize,
			"correlation_id", alert.CorrelationID)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrDelivery, errors.Join(errs...))
}

func (e *Engine) save(ctx context.Context, alert *v1.Alert) error {
	if e.deliverTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deliverTimeout)
		defer cancel()
	}

	err := e.sink.SaveAlert(ctx, alert)
	if errors.Is(err, storage.ErrDuplicate) {
		// Already stored by an earlier delivery of the same alert.
		return nil
	}
	return err
}

// Sweep runs one age-eviction pass over every window and reports it to the observer.
func (e *Engine) Sweep() window.SweepStats {
	stats := e.store.SweepAll(e.clock.Now())
	safeObserve("WindowsSwept", func() { e.observer.WindowsSwept(stats.Evicted, stats.Removed) })
	return stats
}
