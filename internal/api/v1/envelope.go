package v1

import (
	"fmt"
	"strings"
	"time"
)

// Envelope is one telemetry reading for a device as delivered by the upstream boundary.
type Envelope struct {
	// DeviceID keys the per-device window. Required.
	DeviceID string `json:"deviceId"`

	// Timestamp is producer-assigned. It may arrive out of order or duplicated.
	// Required; the zero time is treated as absent.
	Timestamp time.Time `json:"ts"`

	// Payload holds scalar fields (numbers, strings, booleans).
	Payload Payload `json:"payload"`

	// IngestedAt is stamped by the upstream boundary (HTTP handler or queue producer).
	IngestedAt time.Time `json:"ingestedAt"`

	// CorrelationID is carried through to alerts for tracing. It is not used for dedup.
	CorrelationID string `json:"correlationId,omitempty"`
}

// Validate ensures the envelope carries the attributes the engine keys on.
func (e *Envelope) Validate() error {
	if strings.TrimSpace(e.DeviceID) == "" {
		return fmt.Errorf("deviceId is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
