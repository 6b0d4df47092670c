package metrics

import (
	"strings"
	"testing"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, Options{})

	c.EnvelopeProcessed("dev-1")
	c.EnvelopeProcessed("dev-2")
	c.AlertFired(v1.AlertKindInstant, "dev-1")
	c.AlertFired(v1.AlertKindInstant, "dev-2")
	c.AlertFired(v1.AlertKindWindow, "dev-1")
	c.EvaluationObserved(50 * time.Microsecond)
	c.WindowsSwept(4, 1)

	require.Equal(t, float64(2), testutil.ToFloat64(c.messagesProcessed))
	require.Equal(t, float64(2), testutil.ToFloat64(c.alertsTriggered.WithLabelValues("instant")))
	require.Equal(t, float64(1), testutil.ToFloat64(c.alertsTriggered.WithLabelValues("window")))
	require.Equal(t, float64(4), testutil.ToFloat64(c.windowsEvicted))
	require.Equal(t, float64(1), testutil.ToFloat64(c.windowsRemoved))
	require.Equal(t, 1, testutil.CollectAndCount(c.evaluationSeconds))

	// Per-device series stay off unless enabled.
	require.Equal(t, 0, testutil.CollectAndCount(c.alertsByDevice))
}

func TestCollector_PerDevice(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, Options{PerDevice: true})

	c.AlertFired(v1.AlertKindWindow, "dev-9")
	c.AlertFired(v1.AlertKindWindow, "dev-9")

	require.Equal(t, float64(2), testutil.ToFloat64(c.alertsByDevice.WithLabelValues("dev-9", "window")))
}

func TestRegisterWindowGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	active := 3
	RegisterWindowGauge(reg, func() int { return active })

	expected := `
# HELP rules_windows_active Devices currently holding a window
# TYPE rules_windows_active gauge
rules_windows_active 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "rules_windows_active"))
}
