package storage

import (
	"context"
	"errors"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
)

// ErrDuplicate is returned when an alert with the same id already exists.
var ErrDuplicate = errors.New("alert already exists")

// AlertSink durably accepts alerts handed off by the engine.
// Implementations own their timeout and retry policy and must tolerate
// receiving the same logical alert more than once.
type AlertSink interface {
	SaveAlert(ctx context.Context, alert *v1.Alert) error
}

// AlertReader serves stored alerts for the query API.
type AlertReader interface {
	// ListAlerts returns up to limit alerts for a device, newest first.
	ListAlerts(ctx context.Context, deviceID string, limit int) ([]*v1.Alert, error)
}
