package event

import (
	"fmt"
	"log/slog"
)

// Exhaustiveness helpers for switches over Kind. Whether an unexpected
// value is a hard failure or a logged degradation is a call-site
// decision, so both forms exist.

// Unreachable returns a hard error identifying the unexpected value
// verbatim. Use in switches where completeness is safety-critical.
func Unreachable(v any) error {
	return fmt.Errorf("unhandled event kind: %#v", v)
}

// WarnUnreachable logs a soft warning for the unexpected value and
// continues. Use in switches that should degrade gracefully.
func WarnUnreachable(logger *slog.Logger, v any) {
	if logger == nil {
		return
	}
	logger.Warn("unhandled event kind",
		slog.String("value", fmt.Sprintf("%#v", v)),
	)
}
