package consumer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	v1 "github.com/aevon-lab/rule-engine/internal/api/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	headerContentType = "content-type"

	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Decoder turns message bodies into envelopes. JSON is the default content
// type. Protobuf bodies are decoded as the configured message, or as a
// google.protobuf.Struct with the envelope's field names when none is set.
type Decoder struct {
	message protoreflect.MessageDescriptor
}

// NewDecoder returns a decoder for protobuf bodies of type message.
// A nil message selects google.protobuf.Struct.
func NewDecoder(message protoreflect.MessageDescriptor) *Decoder {
	return &Decoder{message: message}
}

// DecodeEnvelope decodes a body with the default decoder.
func DecodeEnvelope(contentType string, body []byte) (v1.Envelope, error) {
	return (&Decoder{}).Decode(contentType, body)
}

// Decode decodes a message body by content type.
func (d *Decoder) Decode(contentType string, body []byte) (v1.Envelope, error) {
	switch normalizeContentType(contentType) {
	case "", ContentTypeJSON:
		return decodeJSON(body)
	case ContentTypeProtobuf:
		return d.decodeProtobuf(body)
	default:
		return v1.Envelope{}, fmt.Errorf("unsupported content type %q", contentType)
	}
}

func decodeJSON(body []byte) (v1.Envelope, error) {
	var env v1.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return v1.Envelope{}, fmt.Errorf("invalid JSON envelope: %w", err)
	}
	return env, nil
}

// decodeProtobuf converts the message to canonical JSON and reuses the JSON
// decoder, so numeric payload values keep their decimal text. Typed payload
// fields are then re-read from the message itself, because protojson renders
// 64-bit integers as strings.
func (d *Decoder) decodeProtobuf(body []byte) (v1.Envelope, error) {
	var msg proto.Message = &structpb.Struct{}
	if d.message != nil {
		msg = dynamicpb.NewMessage(d.message)
	}
	if err := proto.Unmarshal(body, msg); err != nil {
		return v1.Envelope{}, fmt.Errorf("invalid protobuf envelope: %w", err)
	}
	data, err := protojson.Marshal(msg)
	if err != nil {
		return v1.Envelope{}, fmt.Errorf("failed to convert protobuf envelope: %w", err)
	}
	env, err := decodeJSON(data)
	if err != nil {
		return v1.Envelope{}, err
	}
	if d.message == nil {
		return env, nil
	}

	typed, err := typedPayload(msg.ProtoReflect())
	if err != nil {
		return v1.Envelope{}, fmt.Errorf("invalid protobuf envelope: %w", err)
	}
	if len(typed) > 0 && env.Payload == nil {
		env.Payload = make(v1.Payload, len(typed))
	}
	for k, v := range typed {
		env.Payload[k] = v
	}
	return env, nil
}

// typedPayload re-reads the scalar entries of a payload declared as a map or a
// flat message. Other shapes, google.protobuf.Struct included, come back empty
// and keep what the JSON decoder produced.
func typedPayload(msg protoreflect.Message) (v1.Payload, error) {
	fields := msg.Descriptor().Fields()
	fd := fields.ByJSONName("payload")
	if fd == nil {
		fd = fields.ByName("payload")
	}
	if fd == nil || fd.IsList() || !msg.Has(fd) {
		return nil, nil
	}

	raw := make(map[string]interface{})
	switch {
	case fd.IsMap():
		vd := fd.MapValue()
		if !isScalar(vd) {
			return nil, nil
		}
		msg.Get(fd).Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			raw[k.String()] = scalarValue(vd, v)
			return true
		})
	case fd.Kind() == protoreflect.MessageKind:
		if fd.Message().FullName() == "google.protobuf.Struct" {
			return nil, nil
		}
		msg.Get(fd).Message().Range(func(f protoreflect.FieldDescriptor, v protoreflect.Value) bool {
			if !f.IsList() && !f.IsMap() && isScalar(f) {
				raw[f.JSONName()] = scalarValue(f, v)
			}
			return true
		})
	}
	return v1.PayloadFromMap(raw)
}

func isScalar(fd protoreflect.FieldDescriptor) bool {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return false
	}
	return true
}

// scalarValue maps a protobuf scalar onto the plain Go value ValueOf accepts.
// Integers travel as json.Number so 64-bit values stay exact.
func scalarValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) interface{} {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return json.Number(strconv.FormatInt(v.Int(), 10))
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return json.Number(strconv.FormatUint(v.Uint(), 10))
	case protoreflect.FloatKind:
		return float32(v.Float())
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.EnumKind:
		if ev := fd.Enum().Values().ByNumber(v.Enum()); ev != nil {
			return string(ev.Name())
		}
		return json.Number(strconv.Itoa(int(v.Enum())))
	case protoreflect.BytesKind:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	default:
		return v.String()
	}
}

func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
