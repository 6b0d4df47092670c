package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/core/rules"
	"github.com/aevon-lab/rule-engine/internal/core/storage"
	"github.com/aevon-lab/rule-engine/internal/core/window"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

var (
	// ErrInvalidQuery marks request validation errors that should return HTTP 400.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound marks a device with no live window.
	ErrNotFound = errors.New("not found")
)

// WindowReader reads live window snapshots.
type WindowReader interface {
	Snapshot(deviceID string) (window.Snapshot, bool)
}

// Service implements the read side: live windows from memory and stored alerts
// from the alert reader, when one is configured.
type Service struct {
	windows WindowReader
	alerts  storage.AlertReader
	def     rules.Definition
}

// NewService creates a projection service. alerts may be nil.
func NewService(windows WindowReader, def rules.Definition, alerts storage.AlertReader) *Service {
	if windows == nil {
		panic("projection: window reader must not be nil")
	}
	return &Service{windows: windows, alerts: alerts, def: def}
}

// HasAlertReader reports whether stored alerts can be queried.
func (s *Service) HasAlertReader() bool {
	return s.alerts != nil
}

// QueryWindow returns the current window of deviceID.
func (s *Service) QueryWindow(deviceID string) (*WindowQueryResponse, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, invalidQueryf("device_id is required")
	}

	snap, ok := s.windows.Snapshot(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: no window for device %s", ErrNotFound, deviceID)
	}

	return &WindowQueryResponse{
		DeviceID:            deviceID,
		RuleID:              s.def.WindowRuleID(),
		Capacity:            s.def.WindowSize,
		MaxWindowAgeSeconds: int64(s.def.MaxWindowAge.Seconds()),
		Count:               snap.Len(),
		Full:                snap.Len() == s.def.WindowSize,
		Satisfied:           s.def.WindowSatisfied(snap.Entries),
		Entries:             snap.Entries,
	}, nil
}

// ListAlerts returns up to limit stored alerts for deviceID. A zero limit
// selects the default.
func (s *Service) ListAlerts(ctx context.Context, deviceID string, limit int) (*AlertListResponse, error) {
	if s.alerts == nil {
		return nil, errors.New("projection: no alert reader configured")
	}
	if strings.TrimSpace(deviceID) == "" {
		return nil, invalidQueryf("device_id is required")
	}
	switch {
	case limit == 0:
		limit = defaultAlertLimit
	case limit < 0 || limit > maxAlertLimit:
		return nil, invalidQueryf("limit must be between 1 and %d", maxAlertLimit)
	}

	alerts, err := s.alerts.ListAlerts(ctx, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	if alerts == nil {
		alerts = []*v1.Alert{}
	}
	return &AlertListResponse{DeviceID: deviceID, Limit: limit, Alerts: alerts}, nil
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
