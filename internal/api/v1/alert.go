package v1

import "time"

// AlertKind distinguishes single-reading alerts from full-window alerts.
type AlertKind string

const (
	AlertKindInstant AlertKind = "instant"
	AlertKindWindow  AlertKind = "window"
)

// Alert is an immutable record produced when a rule predicate holds.
// The engine hands it to the sink and keeps no reference to it.
type Alert struct {
	ID              string    `json:"id"`
	RuleID          string    `json:"ruleId"`
	DeviceID        string    `json:"deviceId"`
	Kind            AlertKind `json:"kind"`
	ObservedSize    int       `json:"observedSize"`
	Condition       string    `json:"condition"`
	TriggeredAt     time.Time `json:"triggeredAt"`
	PayloadSnapshot Payload   `json:"payloadSnapshot"`
	CorrelationID   string    `json:"correlationId,omitempty"`
}
