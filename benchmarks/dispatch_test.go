package benchmarks

import (
	"context"
	"testing"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

var alertFrame = []byte(`{"type":"alert.created","data":{"id":"a1","risk_level":"critical","created_at":"2026-08-25T10:00:00Z"},"timestamp":"2026-08-25T10:00:00Z"}`)

func noopHandler(_ context.Context, _ event.Message) error { return nil }

// BenchmarkDispatch_1Handler routes a raw frame to one handler.
func BenchmarkDispatch_1Handler(b *testing.B) {
	d := event.NewDispatcher(event.DispatcherConfig{})
	d.Subscribe(event.KindAlertCreated, noopHandler)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Dispatch(ctx, alertFrame)
	}
}

// BenchmarkDispatch_10Handlers routes a raw frame to ten handlers.
func BenchmarkDispatch_10Handlers(b *testing.B) {
	d := event.NewDispatcher(event.DispatcherConfig{})
	for i := 0; i < 10; i++ {
		d.Subscribe(event.KindAlertCreated, noopHandler)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Dispatch(ctx, alertFrame)
	}
}

// BenchmarkDispatch_UnknownKind measures the drop path.
func BenchmarkDispatch_UnknownKind(b *testing.B) {
	d := event.NewDispatcher(event.DispatcherConfig{})
	frame := []byte(`{"type":"nonsense.kind","data":{}}`)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Dispatch(ctx, frame)
	}
}

// BenchmarkKindOf measures tag discrimination alone.
func BenchmarkKindOf(b *testing.B) {
	wire := event.WireMessage{
		Type: "alert.created",
		Data: map[string]any{"id": "a1", "risk_level": "critical", "created_at": "2026-08-25T10:00:00Z"},
	}
	for i := 0; i < b.N; i++ {
		event.KindOf(wire)
	}
}

// BenchmarkMatches measures shape validation against the schema table.
func BenchmarkMatches(b *testing.B) {
	wire := event.WireMessage{
		Type: "zone.trust_changed",
		Data: map[string]any{"zone_id": "porch", "trust": map[string]any{"score": 0.9}},
	}
	for i := 0; i < b.N; i++ {
		event.Matches(event.KindZoneTrustChanged, wire)
	}
}
