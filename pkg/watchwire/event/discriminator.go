package event

import "encoding/json"

// The discriminator decides whether an arbitrary untyped value conforms
// to the shape a kind requires. All guards are pure and total: they
// return a boolean for any input and never panic.

// KindOf extracts the kind tag from an untyped value.
// It returns false when the value is not an envelope-shaped object or
// its "type" tag is not a registered kind. The tag is matched exactly;
// the payload shape is never used to infer the top-level kind.
func KindOf(v any) (Kind, bool) {
	wire, ok := asEnvelope(v)
	if !ok {
		return "", false
	}
	if !IsKind(wire.Type) {
		return "", false
	}
	return Kind(wire.Type), true
}

// Matches reports whether v qualifies as a message of the given kind:
// it must be an envelope-shaped object, its "type" tag must equal the
// kind exactly, and every field the kind's schema requires must be
// present with the right primitive category. Extra fields are ignored.
func Matches(kind Kind, v any) bool {
	wire, ok := asEnvelope(v)
	if !ok {
		return false
	}
	if wire.Type != string(kind) {
		return false
	}
	schema, ok := schemas[kind]
	if !ok {
		return false
	}
	return fieldsMatch(wire.Body(), schema.Fields)
}

// Known reports whether v qualifies as any registered kind.
// Used as a fast filter before full dispatch.
func Known(v any) bool {
	kind, ok := KindOf(v)
	if !ok {
		return false
	}
	return Matches(kind, v)
}

// asEnvelope normalizes the supported input shapes into a WireMessage.
// Unsupported shapes (nil, primitives, arrays) return false.
func asEnvelope(v any) (WireMessage, bool) {
	switch val := v.(type) {
	case WireMessage:
		return val, true
	case *WireMessage:
		if val == nil {
			return WireMessage{}, false
		}
		return *val, true
	case map[string]any:
		typ, ok := val["type"].(string)
		if !ok {
			return WireMessage{}, false
		}
		wire := WireMessage{Type: typ}
		if data, ok := val["data"].(map[string]any); ok {
			wire.Data = data
		}
		if payload, ok := val["payload"].(map[string]any); ok {
			wire.Payload = payload
		}
		if ts, ok := val["timestamp"].(string); ok {
			wire.Timestamp = ts
		}
		return wire, true
	default:
		return WireMessage{}, false
	}
}

// fieldsMatch checks every required field against its category.
func fieldsMatch(body map[string]any, fields []Field) bool {
	for _, f := range fields {
		val, ok := body[f.Name]
		if !ok {
			return false
		}
		if !categoryMatch(val, f) {
			return false
		}
	}
	return true
}

func categoryMatch(val any, f Field) bool {
	switch f.Type {
	case FieldString:
		_, ok := val.(string)
		return ok
	case FieldNumber:
		switch val.(type) {
		case float64, float32, int, int64, json.Number:
			return true
		}
		return false
	case FieldBool:
		_, ok := val.(bool)
		return ok
	case FieldObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return false
		}
		return fieldsMatch(obj, f.Fields)
	default:
		return false
	}
}
