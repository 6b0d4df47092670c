package rules

import (
	"testing"
	"time"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func num(s string) v1.Value { return v1.NumberValue(decimal.RequireFromString(s)) }

func envWithA(device string, a v1.Value) v1.Envelope {
	return v1.Envelope{
		DeviceID:      device,
		Timestamp:     time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC),
		Payload:       v1.Payload{"a": a},
		CorrelationID: "corr-" + device,
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		payload v1.Payload
		field   string
		want    decimal.Decimal
		wantOK  bool
	}{
		{name: "empty field name", payload: v1.Payload{"a": num("1")}, field: "", wantOK: false},
		{name: "nil payload", payload: nil, field: "a", wantOK: false},
		{name: "missing field", payload: v1.Payload{"b": num("1")}, field: "a", wantOK: false},
		{name: "number", payload: v1.Payload{"a": num("12.5")}, field: "a", want: decimal.RequireFromString("12.5"), wantOK: true},
		{name: "numeric-looking string is not a number", payload: v1.Payload{"a": v1.StringValue("42")}, field: "a", wantOK: false},
		{name: "bool", payload: v1.Payload{"a": v1.BoolValue(true)}, field: "a", wantOK: false},
		{name: "null", payload: v1.Payload{"a": v1.NullValue()}, field: "a", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Extract(tc.payload, tc.field)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				require.True(t, tc.want.Equal(got), "want=%s got=%s", tc.want, got)
			}
		})
	}
}

func TestEvaluateInstant(t *testing.T) {
	def := Default()
	now := time.Date(2026, 2, 8, 12, 0, 5, 0, time.UTC)

	tests := []struct {
		name   string
		value  v1.Value
		firing bool
	}{
		{name: "above threshold", value: num("6"), firing: true},
		{name: "equal to threshold", value: num("5"), firing: false},
		{name: "just above threshold", value: num("5.0000001"), firing: true},
		{name: "below threshold", value: num("-10"), firing: false},
		{name: "string six", value: v1.StringValue("6"), firing: false},
		{name: "bool", value: v1.BoolValue(true), firing: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := envWithA("dev-1", tc.value)
			alert, ok := def.EvaluateInstant(env, now)
			require.Equal(t, tc.firing, ok)
			if !ok {
				return
			}
			require.NotEmpty(t, alert.ID)
			require.Equal(t, "instant-a-gt-5", alert.RuleID)
			require.Equal(t, v1.AlertKindInstant, alert.Kind)
			require.Equal(t, 1, alert.ObservedSize)
			require.Equal(t, "payload.a > 5", alert.Condition)
			require.Equal(t, "dev-1", alert.DeviceID)
			require.Equal(t, "corr-dev-1", alert.CorrelationID)
			require.Equal(t, now, alert.TriggeredAt)
			require.True(t, tc.value.Equal(alert.PayloadSnapshot["a"]))
		})
	}
}

func TestEvaluateInstant_SnapshotIsIndependent(t *testing.T) {
	def := Default()
	env := envWithA("dev-1", num("9"))
	alert, ok := def.EvaluateInstant(env, time.Now())
	require.True(t, ok)

	env.Payload["a"] = num("1")
	require.True(t, num("9").Equal(alert.PayloadSnapshot["a"]))
}

func TestWindowSatisfied(t *testing.T) {
	def := Default()
	def.WindowSize = 3

	window := func(values ...string) []v1.Envelope {
		out := make([]v1.Envelope, 0, len(values))
		for _, v := range values {
			out = append(out, envWithA("dev-1", num(v)))
		}
		return out
	}

	require.True(t, def.WindowSatisfied(window("6", "7", "8")))
	require.False(t, def.WindowSatisfied(window("6", "6", "4")), "one value at or below threshold")
	require.False(t, def.WindowSatisfied(window("6", "7")), "window not full")
	require.False(t, def.WindowSatisfied(window("6", "7", "8", "9")), "longer than N")

	mixed := window("6", "7")
	mixed = append(mixed, envWithA("dev-1", v1.StringValue("8")))
	require.False(t, def.WindowSatisfied(mixed), "non-numeric entry")
}

func TestRuleIdentifiers(t *testing.T) {
	def := Default()
	def.Field = "temp"
	def.Threshold = decimal.RequireFromString("37.5")
	def.WindowSize = 4

	require.Equal(t, "instant-temp-gt-37.5", def.InstantRuleID())
	require.Equal(t, "window-temp-gt-37.5-n-4", def.WindowRuleID())
	require.Equal(t, "payload.temp > 37.5", def.Condition())

	alert := def.WindowAlert(envWithA("dev-2", num("40")), 4, time.Now())
	require.Equal(t, v1.AlertKindWindow, alert.Kind)
	require.Equal(t, 4, alert.ObservedSize)
	require.Equal(t, "window-temp-gt-37.5-n-4", alert.RuleID)
}
