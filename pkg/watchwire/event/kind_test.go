package event_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

func TestSchemaTableTotal(t *testing.T) {
	kinds := event.Kinds()
	if len(kinds) == 0 {
		t.Fatal("expected registered kinds")
	}

	for _, k := range kinds {
		schema, ok := event.SchemaFor(k)
		if !ok {
			t.Fatalf("kind %q has no schema", k)
		}
		if schema.Kind != k {
			t.Errorf("schema for %q declares kind %q", k, schema.Kind)
		}
		if schema.Description == "" {
			t.Errorf("kind %q has no description", k)
		}
		for _, f := range schema.Fields {
			if f.Name == "" {
				t.Errorf("kind %q has an unnamed required field", k)
			}
		}
	}
}

// TestKindSwitchExhaustive asserts every registered kind has a branch in
// a representative consumer switch, so adding a kind without handling it
// fails the build's tests rather than silently falling through.
func TestKindSwitchExhaustive(t *testing.T) {
	for _, k := range event.Kinds() {
		switch k {
		case event.KindEvent,
			event.KindSystemStatus,
			event.KindCameraOnline,
			event.KindCameraOffline,
			event.KindDetectionNew,
			event.KindAlertCreated,
			event.KindAlertResolved,
			event.KindJobFailed,
			event.KindZoneTrustChanged:
			// handled
		default:
			t.Fatal(event.Unreachable(k))
		}
	}
}

func TestUnreachable(t *testing.T) {
	err := event.Unreachable(event.Kind("alert.reopened"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "alert.reopened") {
		t.Errorf("expected offending value in error, got %q", err.Error())
	}
}

func TestWarnUnreachableNilLogger(t *testing.T) {
	// Must not panic with a nil logger.
	event.WarnUnreachable(nil, event.Kind("alert.reopened"))
	event.WarnUnreachable(slog.Default(), event.Kind("alert.reopened"))
}

func TestFieldTypeString(t *testing.T) {
	tests := map[event.FieldType]string{
		event.FieldString: "string",
		event.FieldNumber: "number",
		event.FieldBool:   "bool",
		event.FieldObject: "object",
	}
	for ft, want := range tests {
		if got := ft.String(); got != want {
			t.Errorf("FieldType(%d).String() = %q, want %q", ft, got, want)
		}
	}
}
