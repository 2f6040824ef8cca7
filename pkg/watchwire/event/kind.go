package event

// Kind identifies a wire message's payload shape.
// The set of kinds is closed: every Kind constant below has exactly one
// entry in the schema table, and messages tagged with anything else are
// dropped at dispatch.
type Kind string

// Wire event kinds emitted by the monitoring backend.
const (
	// KindEvent is a generic timeline event (motion, door, tamper).
	KindEvent Kind = "event"

	// KindSystemStatus reports hub/service health telemetry.
	KindSystemStatus Kind = "system_status"

	// KindCameraOnline and KindCameraOffline report camera connectivity.
	KindCameraOnline  Kind = "camera.online"
	KindCameraOffline Kind = "camera.offline"

	// KindDetectionNew is a new object/person detection.
	KindDetectionNew Kind = "detection.new"

	// KindAlertCreated and KindAlertResolved track alert lifecycle.
	KindAlertCreated  Kind = "alert.created"
	KindAlertResolved Kind = "alert.resolved"

	// KindJobFailed reports a failed background job (clip export, sync).
	KindJobFailed Kind = "job.failed"

	// KindZoneTrustChanged reports a zone trust score update.
	KindZoneTrustChanged Kind = "zone.trust_changed"
)

// FieldType is the primitive category a required payload field must have.
type FieldType int

const (
	// FieldString requires a JSON string.
	FieldString FieldType = iota

	// FieldNumber requires a JSON number.
	FieldNumber

	// FieldBool requires a JSON boolean.
	FieldBool

	// FieldObject requires a JSON object, optionally with required subfields.
	FieldObject
)

// String returns the category name.
func (t FieldType) String() string {
	switch t {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldBool:
		return "bool"
	case FieldObject:
		return "object"
	default:
		return "unknown"
	}
}

// Field describes one required payload field.
type Field struct {
	// Name is the JSON key.
	Name string

	// Type is the required primitive category.
	Type FieldType

	// Fields lists required subfields when Type is FieldObject.
	Fields []Field
}

// Schema declares the required payload shape for a Kind.
// Extra fields beyond those listed are permitted and ignored.
type Schema struct {
	Kind        Kind
	Description string
	Fields      []Field
}

// schemas is the static, total Kind -> shape table consulted by the
// generic validator in discriminator.go. One declarative entry per kind
// instead of one hand-written guard per kind.
var schemas = map[Kind]Schema{
	KindEvent: {
		Kind:        KindEvent,
		Description: "generic timeline event",
		Fields: []Field{
			{Name: "id", Type: FieldString},
			{Name: "category", Type: FieldString},
			{Name: "occurred_at", Type: FieldString},
		},
	},
	KindSystemStatus: {
		Kind:        KindSystemStatus,
		Description: "hub and service health telemetry",
		Fields: []Field{
			{Name: "status", Type: FieldString},
			{Name: "services", Type: FieldObject},
		},
	},
	KindCameraOnline: {
		Kind:        KindCameraOnline,
		Description: "camera came online",
		Fields: []Field{
			{Name: "camera_id", Type: FieldString},
		},
	},
	KindCameraOffline: {
		Kind:        KindCameraOffline,
		Description: "camera went offline",
		Fields: []Field{
			{Name: "camera_id", Type: FieldString},
		},
	},
	KindDetectionNew: {
		Kind:        KindDetectionNew,
		Description: "new detection from the analysis pipeline",
		Fields: []Field{
			{Name: "id", Type: FieldString},
			{Name: "camera_id", Type: FieldString},
			{Name: "label", Type: FieldString},
			{Name: "confidence", Type: FieldNumber},
		},
	},
	KindAlertCreated: {
		Kind:        KindAlertCreated,
		Description: "alert raised",
		Fields: []Field{
			{Name: "id", Type: FieldString},
			{Name: "risk_level", Type: FieldString},
			{Name: "created_at", Type: FieldString},
		},
	},
	KindAlertResolved: {
		Kind:        KindAlertResolved,
		Description: "alert resolved or dismissed",
		Fields: []Field{
			{Name: "id", Type: FieldString},
		},
	},
	KindJobFailed: {
		Kind:        KindJobFailed,
		Description: "background job failure",
		Fields: []Field{
			{Name: "job_id", Type: FieldString},
			{Name: "error", Type: FieldString},
		},
	},
	KindZoneTrustChanged: {
		Kind:        KindZoneTrustChanged,
		Description: "zone trust score update",
		Fields: []Field{
			{Name: "zone_id", Type: FieldString},
			{Name: "trust", Type: FieldObject, Fields: []Field{
				{Name: "score", Type: FieldNumber},
			}},
		},
	},
}

// Kinds returns every registered kind. The slice is a copy.
func Kinds() []Kind {
	out := make([]Kind, 0, len(schemas))
	for k := range schemas {
		out = append(out, k)
	}
	return out
}

// SchemaFor returns the schema for a kind.
func SchemaFor(k Kind) (Schema, bool) {
	s, ok := schemas[k]
	return s, ok
}

// IsKind reports whether s is a registered kind tag.
func IsKind(s string) bool {
	_, ok := schemas[Kind(s)]
	return ok
}
