package consumer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
)

const readingProto = `syntax = "proto3";

package telemetry.v1;

import "google/protobuf/struct.proto";
import "google/protobuf/timestamp.proto";

message Reading {
  string device_id = 1;
  google.protobuf.Timestamp ts = 2;
  google.protobuf.Struct payload = 3;
  string correlation_id = 4;
}
`

const typedReadingProto = `syntax = "proto3";

package telemetry.v1;

import "google/protobuf/timestamp.proto";

message CounterReading {
  string device_id = 1;
  google.protobuf.Timestamp ts = 2;
  map<string, int64> payload = 3;
}

message Sample {
  int64 a = 1;
  uint64 count = 2;
  double temp = 3;
  string unit = 4;
  bool ok = 5;
}

message SampleReading {
  string device_id = 1;
  google.protobuf.Timestamp ts = 2;
  Sample payload = 3;
}
`

func TestDecodeEnvelope_JSON(t *testing.T) {
	body := []byte(`{"deviceId":"dev-1","ts":"2026-02-08T12:00:00Z","payload":{"a":6.25},"correlationId":"c-1"}`)

	for _, ct := range []string{"", "application/json", "Application/JSON; charset=utf-8"} {
		env, err := DecodeEnvelope(ct, body)
		require.NoError(t, err, ct)
		require.Equal(t, "dev-1", env.DeviceID)
		require.Equal(t, "c-1", env.CorrelationID)
		a, ok := env.Payload["a"].Number()
		require.True(t, ok)
		require.True(t, decimal.RequireFromString("6.25").Equal(a))
	}
}

func TestDecodeEnvelope_Protobuf(t *testing.T) {
	st, err := structpb.NewStruct(map[string]interface{}{
		"deviceId":      "dev-2",
		"ts":            "2026-02-08T12:00:00Z",
		"correlationId": "c-2",
		"payload": map[string]interface{}{
			"a":    7.5,
			"unit": "C",
			"ok":   true,
		},
	})
	require.NoError(t, err)
	body, err := proto.Marshal(st)
	require.NoError(t, err)

	env, err := DecodeEnvelope(ContentTypeProtobuf, body)
	require.NoError(t, err)
	require.Equal(t, "dev-2", env.DeviceID)
	require.True(t, env.Timestamp.Equal(time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)))

	a, ok := env.Payload["a"].Number()
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("7.5").Equal(a))
	unit, ok := env.Payload["unit"].Text()
	require.True(t, ok)
	require.Equal(t, "C", unit)
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	_, err := DecodeEnvelope("", []byte("not json"))
	require.ErrorContains(t, err, "invalid JSON envelope")

	_, err = DecodeEnvelope(ContentTypeProtobuf, []byte{0xff, 0xff, 0xff})
	require.ErrorContains(t, err, "invalid protobuf envelope")

	_, err = DecodeEnvelope("text/csv", []byte("a,b"))
	require.ErrorContains(t, err, "unsupported content type")

	_, err = DecodeEnvelope("", []byte(`{"deviceId":"d","ts":"2026-02-08T12:00:00Z","payload":{"a":[1]}}`))
	require.Error(t, err)
}

func TestDecoder_TypedProtobuf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reading.proto")
	require.NoError(t, os.WriteFile(path, []byte(readingProto), 0o644))

	md, err := CompileMessage(context.Background(), path, "Reading")
	require.NoError(t, err)
	require.Equal(t, "telemetry.v1.Reading", string(md.FullName()))

	msg := dynamicpb.NewMessage(md)
	require.NoError(t, protojson.Unmarshal([]byte(`{
		"deviceId": "dev-9",
		"ts": "2026-02-08T12:00:00Z",
		"payload": {"a": 12.5},
		"correlationId": "c-9"
	}`), msg))
	body, err := proto.Marshal(msg)
	require.NoError(t, err)

	env, err := NewDecoder(md).Decode(ContentTypeProtobuf, body)
	require.NoError(t, err)
	require.Equal(t, "dev-9", env.DeviceID)
	require.Equal(t, "c-9", env.CorrelationID)
	require.True(t, env.Timestamp.Equal(time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)))
	a, ok := env.Payload["a"].Number()
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("12.5").Equal(a))

	// JSON bodies are unaffected by the configured message type.
	env, err = NewDecoder(md).Decode(ContentTypeJSON, []byte(`{"deviceId":"dev-1","ts":"2026-02-08T12:00:00Z","payload":{}}`))
	require.NoError(t, err)
	require.Equal(t, "dev-1", env.DeviceID)
}

func encodeTyped(t *testing.T, name, doc string) (*Decoder, []byte) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typed.proto")
	require.NoError(t, os.WriteFile(path, []byte(typedReadingProto), 0o644))

	md, err := CompileMessage(context.Background(), path, name)
	require.NoError(t, err)

	msg := dynamicpb.NewMessage(md)
	require.NoError(t, protojson.Unmarshal([]byte(doc), msg))
	body, err := proto.Marshal(msg)
	require.NoError(t, err)
	return NewDecoder(md), body
}

func TestDecoder_Int64MapPayload(t *testing.T) {
	dec, body := encodeTyped(t, "CounterReading", `{
		"deviceId": "dev-3",
		"ts": "2026-02-08T12:00:00Z",
		"payload": {"a": 7, "big": "9007199254740993"}
	}`)

	env, err := dec.Decode(ContentTypeProtobuf, body)
	require.NoError(t, err)
	require.Equal(t, "dev-3", env.DeviceID)

	a, ok := env.Payload["a"].Number()
	require.True(t, ok, "a decoded as %s", env.Payload["a"].Kind())
	require.True(t, decimal.NewFromInt(7).Equal(a))

	big, ok := env.Payload["big"].Number()
	require.True(t, ok)
	require.Equal(t, "9007199254740993", big.String())
}

func TestDecoder_MessagePayload(t *testing.T) {
	dec, body := encodeTyped(t, "SampleReading", `{
		"deviceId": "dev-4",
		"ts": "2026-02-08T12:00:00Z",
		"payload": {"a": "-12", "count": "18446744073709551615", "temp": 21.5, "unit": "C", "ok": true}
	}`)

	env, err := dec.Decode(ContentTypeProtobuf, body)
	require.NoError(t, err)

	a, ok := env.Payload["a"].Number()
	require.True(t, ok)
	require.True(t, decimal.NewFromInt(-12).Equal(a))

	count, ok := env.Payload["count"].Number()
	require.True(t, ok)
	require.Equal(t, "18446744073709551615", count.String())

	temp, ok := env.Payload["temp"].Number()
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("21.5").Equal(temp))

	unit, ok := env.Payload["unit"].Text()
	require.True(t, ok)
	require.Equal(t, "C", unit)
	require.Equal(t, "bool", env.Payload["ok"].Kind().String())
}

func TestCompileMessage_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reading.proto")
	require.NoError(t, os.WriteFile(path, []byte(readingProto), 0o644))

	_, err := CompileMessage(context.Background(), path, "Missing")
	require.ErrorContains(t, err, "not found")

	md, err := CompileMessage(context.Background(), path, "")
	require.NoError(t, err)
	require.Equal(t, "Reading", string(md.Name()))

	bad := filepath.Join(dir, "bad.proto")
	require.NoError(t, os.WriteFile(bad, []byte("syntax = \"proto3\";\nmessage {"), 0o644))
	_, err = CompileMessage(context.Background(), bad, "")
	require.ErrorContains(t, err, "failed to compile proto")
}
