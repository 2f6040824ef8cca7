package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// WireMessage is the untyped envelope delivered by a transport.
// It exists only for the duration of dispatch.
type WireMessage struct {
	Type string `json:"type"`

	// Data carries the payload. Older hub firmware sends "payload"
	// instead; Body() resolves whichever is present.
	Data    map[string]any `json:"data,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`
}

// Body returns the payload object, preferring "data" over "payload".
// Returns an empty map when neither was sent.
func (m WireMessage) Body() map[string]any {
	if m.Data != nil {
		return m.Data
	}
	if m.Payload != nil {
		return m.Payload
	}
	return map[string]any{}
}

// Decode parses a raw transport frame into a WireMessage.
func Decode(raw []byte) (WireMessage, error) {
	var m WireMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return WireMessage{}, fmt.Errorf("decode wire message: %w", err)
	}
	return m, nil
}

// Message is a wire message whose type tag and payload shape have been
// validated against the schema table. Messages are never mutated after
// creation and are discarded after dispatch.
type Message struct {
	Kind      Kind
	Data      map[string]any
	Timestamp time.Time
}

// newMessage builds a validated Message from an envelope.
// The caller must have already checked Matches(kind, wire).
func newMessage(kind Kind, wire WireMessage) Message {
	msg := Message{
		Kind: kind,
		Data: wire.Body(),
	}
	if wire.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, wire.Timestamp); err == nil {
			msg.Timestamp = ts
		}
	}
	return msg
}

// DecodeData unmarshals a message payload into a concrete type via a
// JSON round-trip. Use this inside handlers to get a typed view of the
// already shape-validated payload.
func DecodeData[T any](msg Message) (T, error) {
	var out T
	raw, err := json.Marshal(msg.Data)
	if err != nil {
		return out, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload into %T: %w", out, err)
	}
	return out, nil
}
