package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/aevon-lab/rule-engine/internal/core/rules"
	"github.com/aevon-lab/rule-engine/internal/core/window"
	storagemocks "github.com/aevon-lab/rule-engine/internal/mocks/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

func testDefinition() rules.Definition {
	def := rules.Default()
	def.WindowSize = 3
	return def
}

func reading(deviceID string, a int64, at time.Time) v1.Envelope {
	return v1.Envelope{
		DeviceID:  deviceID,
		Timestamp: at,
		Payload:   v1.Payload{"a": v1.NumberValue(decimal.NewFromInt(a))},
	}
}

func newStore(t *testing.T, def rules.Definition) *window.Store {
	t.Helper()
	store, err := window.NewStore(def.WindowSize, def.MaxWindowAge)
	require.NoError(t, err)
	return store
}

func TestService_QueryWindow(t *testing.T) {
	def := testDefinition()
	store := newStore(t, def)
	for i, a := range []int64{4, 6, 7, 8} {
		at := baseTime.Add(time.Duration(i) * time.Second)
		store.Append("dev-1", reading("dev-1", a, at), at, nil)
	}
	svc := NewService(store, def, nil)

	resp, err := svc.QueryWindow("dev-1")
	require.NoError(t, err)
	require.Equal(t, "window-a-gt-5-n-3", resp.RuleID)
	require.Equal(t, 3, resp.Capacity)
	require.Equal(t, int64(60), resp.MaxWindowAgeSeconds)
	require.Equal(t, 3, resp.Count)
	require.True(t, resp.Full)
	require.True(t, resp.Satisfied)
	require.Len(t, resp.Entries, 3)

	first, ok := resp.Entries[0].Payload["a"].Number()
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(6).Equal(first), "oldest entry was evicted by size")
}

func TestService_QueryWindow_Errors(t *testing.T) {
	def := testDefinition()
	svc := NewService(newStore(t, def), def, nil)

	_, err := svc.QueryWindow("unknown")
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.QueryWindow(" ")
	require.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestService_ListAlerts_Limits(t *testing.T) {
	def := testDefinition()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
		wantErr   error
	}{
		{name: "default limit", limit: 0, wantLimit: defaultAlertLimit},
		{name: "explicit limit", limit: 10, wantLimit: 10},
		{name: "negative limit", limit: -1, wantErr: ErrInvalidQuery},
		{name: "limit too large", limit: maxAlertLimit + 1, wantErr: ErrInvalidQuery},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reader := storagemocks.NewAlertReader(t)
			if tc.wantErr == nil {
				reader.EXPECT().
					ListAlerts(mock.Anything, "dev-1", tc.wantLimit).
					Return([]*v1.Alert(nil), nil).
					Once()
			}
			svc := NewService(newStore(t, def), def, reader)

			resp, err := svc.ListAlerts(context.Background(), "dev-1", tc.limit)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantLimit, resp.Limit)
			require.NotNil(t, resp.Alerts)
			require.Empty(t, resp.Alerts)
		})
	}
}

func TestService_ListAlerts_WithoutReader(t *testing.T) {
	def := testDefinition()
	svc := NewService(newStore(t, def), def, nil)

	require.False(t, svc.HasAlertReader())
	_, err := svc.ListAlerts(context.Background(), "dev-1", 0)
	require.Error(t, err)
}
