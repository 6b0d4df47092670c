package projection

import (
	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
)

// WindowQueryResponse is the live sliding window of one device.
type WindowQueryResponse struct {
	DeviceID            string        `json:"device_id"`
	RuleID              string        `json:"rule_id"`
	Capacity            int           `json:"capacity"`
	MaxWindowAgeSeconds int64         `json:"max_window_age_seconds"`
	Count               int           `json:"count"`
	Full                bool          `json:"full"`
	Satisfied           bool          `json:"satisfied"`
	Entries             []v1.Envelope `json:"entries"`
}

// AlertListResponse lists stored alerts for a device, newest first.
type AlertListResponse struct {
	DeviceID string      `json:"device_id"`
	Limit    int         `json:"limit"`
	Alerts   []*v1.Alert `json:"alerts"`
}
