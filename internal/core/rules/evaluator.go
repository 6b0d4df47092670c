package rules

import (
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Extract pulls a numeric value from the payload by field name.
// Absent fields, strings (even numeric-looking ones), booleans and nulls
// all report false.
func Extract(payload v1.Payload, field string) (decimal.Decimal, bool) {
	if field == "" || payload == nil {
		return decimal.Zero, false
	}
	v, ok := payload[field]
	if !ok {
		return decimal.Zero, false
	}
	return v.Number()
}

// Exceeds reports whether the configured field is numeric and strictly above the threshold.
func (d Definition) Exceeds(payload v1.Payload) bool {
	n, ok := Extract(payload, d.Field)
	return ok && n.GreaterThan(d.Threshold)
}

// WindowSatisfied reports whether entries form a full window in which every
// entry exceeds the threshold.
func (d Definition) WindowSatisfied(entries []v1.Envelope) bool {
	if len(entries) != d.WindowSize {
		return false
	}
	for i := range entries {
		if !d.Exceeds(entries[i].Payload) {
			return false
		}
	}
	return true
}

// EvaluateInstant returns an instant alert when env alone satisfies the predicate.
func (d Definition) EvaluateInstant(env v1.Envelope, now time.Time) (v1.Alert, bool) {
	if !d.Exceeds(env.Payload) {
		return v1.Alert{}, false
	}
	return d.newAlert(d.InstantRuleID(), v1.AlertKindInstant, 1, env, now), true
}

// WindowAlert builds the alert for a window that fired. env is the envelope
// that completed the window.
func (d Definition) WindowAlert(env v1.Envelope, observed int, now time.Time) v1.Alert {
	return d.newAlert(d.WindowRuleID(), v1.AlertKindWindow, observed, env, now)
}

func (d Definition) newAlert(ruleID string, kind v1.AlertKind, observed int, env v1.Envelope, now time.Time) v1.Alert {
	return v1.Alert{
		ID:              uuid.NewString(),
		RuleID:          ruleID,
		DeviceID:        env.DeviceID,
		Kind:            kind,
		ObservedSize:    observed,
		Condition:       d.Condition(),
		TriggeredAt:     now.UTC(),
		PayloadSnapshot: env.Payload.Clone(),
		CorrelationID:   env.CorrelationID,
	}
}
