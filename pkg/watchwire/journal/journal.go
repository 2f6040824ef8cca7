// Package journal provides persistent storage for dispatched events.
//
// A Journal records every message a dispatcher routes so a reconnecting
// dashboard can replay recent activity instead of starting blank.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
)

// Journal stores dispatched events in arrival order.
// Implementations must be safe for concurrent use.
type Journal interface {
	// Append records one dispatched message.
	Append(msg event.Message) error

	// Recent returns up to limit records of the given kind, newest
	// first. An empty kind matches every record. Returns an empty
	// slice (not an error) when nothing matches.
	Recent(kind event.Kind, limit int) ([]Record, error)

	// Prune deletes records older than the cutoff and reports how
	// many were removed.
	Prune(before time.Time) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one journaled event.
type Record struct {
	Sequence  int64
	Kind      event.Kind
	Data      map[string]any
	Timestamp time.Time
}

// Sentinel errors for journal operations.
var (
	// ErrJournalClosed indicates the journal has been closed.
	ErrJournalClosed = errors.New("journal closed")
)

// Attach subscribes a journal to every kind a dispatcher routes.
// Append failures surface through the dispatcher's OnError callback.
// The returned Unsubscribe detaches the journal.
func Attach(d *event.Dispatcher, j Journal) event.Unsubscribe {
	return d.SubscribeAll(func(_ context.Context, msg event.Message) error {
		return j.Append(msg)
	})
}
