package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind tags the dynamic type carried by a payload Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single scalar payload field.
// Numbers keep the exact decimal text they were decoded from.
type Value struct {
	kind Kind
	num  decimal.Decimal
	str  string
	b    bool
}

// Payload maps a field name to its scalar value.
type Payload map[string]Value

func NumberValue(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }
func StringValue(s string) Value          { return Value{kind: KindString, str: s} }
func BoolValue(b bool) Value              { return Value{kind: KindBool, b: b} }
func NullValue() Value                    { return Value{} }

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric value and true only when v holds a number.
// Strings are never converted, even when they look numeric.
func (v Value) Number() (decimal.Decimal, bool) {
	if v.kind != KindNumber {
		return decimal.Zero, false
	}
	return v.num, true
}

// Text returns the string value and true only when v holds a string.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return v.num.String()
	case KindString:
		return strconv.Quote(v.str)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

// Equal reports whether both values share a kind and hold the same scalar.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num.Equal(o.num)
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty payload value")
	}

	switch data[0] {
	case 'n':
		*v = NullValue()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("invalid boolean payload value: %w", err)
		}
		*v = BoolValue(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid string payload value: %w", err)
		}
		*v = StringValue(s)
		return nil
	case '{', '[':
		return fmt.Errorf("payload values must be scalars, got %s", kindOfComposite(data[0]))
	}

	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid numeric payload value %q: %w", data, err)
	}
	*v = NumberValue(d)
	return nil
}

func kindOfComposite(c byte) string {
	if c == '{' {
		return "object"
	}
	return "array"
}

// ValueOf converts a plain Go scalar into a Value.
// Maps and slices are rejected, matching the JSON decoder.
func ValueOf(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return val, nil
	case bool:
		return BoolValue(val), nil
	case string:
		return StringValue(val), nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return Value{}, fmt.Errorf("invalid numeric payload value %q: %w", val, err)
		}
		return NumberValue(d), nil
	case decimal.Decimal:
		return NumberValue(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Value{}, fmt.Errorf("non-finite numeric payload value %v", val)
		}
		return NumberValue(decimal.NewFromFloat(val)), nil
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("non-finite numeric payload value %v", val)
		}
		return NumberValue(decimal.NewFromFloat32(val)), nil
	case int:
		return NumberValue(decimal.NewFromInt(int64(val))), nil
	case int32:
		return NumberValue(decimal.NewFromInt32(val)), nil
	case int64:
		return NumberValue(decimal.NewFromInt(val)), nil
	case uint32:
		return NumberValue(decimal.NewFromInt(int64(val))), nil
	default:
		return Value{}, fmt.Errorf("unsupported payload value type %T", raw)
	}
}

// PayloadFromMap converts a decoded map into a Payload, rejecting nested values.
func PayloadFromMap(m map[string]interface{}) (Payload, error) {
	p := make(Payload, len(m))
	for k, raw := range m {
		v, err := ValueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("payload field %q: %w", k, err)
		}
		p[k] = v
	}
	return p, nil
}

// Clone returns an independent copy of the payload.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
