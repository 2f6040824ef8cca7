// Package transport delivers raw wire frames from an event source to a
// dispatcher.
//
// A Transport knows nothing about message kinds or payload shapes; it
// hands every received frame to the dispatcher, which discriminates and
// drops what it cannot route.
package transport

import (
	"context"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// DeliverFunc receives one raw frame from a transport.
type DeliverFunc func(raw []byte)

// Transport is a source of raw wire frames.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Start begins delivering frames to deliver. It returns once
	// delivery is set up; frames arrive on transport-owned goroutines
	// until Close. Calling Start twice is an error.
	Start(ctx context.Context, deliver DeliverFunc) error

	// Close stops delivery and releases transport resources.
	// Close is idempotent.
	Close() error
}

// Run wires a transport into a dispatcher: every received frame is
// decoded, discriminated, and routed. Run returns after delivery is set
// up; call transport.Close to stop.
func Run(ctx context.Context, t Transport, d *event.Dispatcher) error {
	return t.Start(ctx, func(raw []byte) {
		d.Dispatch(ctx, raw)
	})
}
