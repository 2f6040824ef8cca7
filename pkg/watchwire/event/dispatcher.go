package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/observability"
)

// Handler processes one validated message. A non-nil error is reported
// to the dispatcher's OnError callback; it never stops other handlers.
type Handler func(ctx context.Context, msg Message) error

// Unsubscribe removes the registration it was returned for.
// Calling it more than once is a no-op.
type Unsubscribe func()

// DispatcherConfig configures dispatcher behavior.
type DispatcherConfig struct {
	// Logger receives debug lines for dropped messages. Optional.
	Logger *slog.Logger

	// OnError is called when a handler returns an error or panics.
	// Optional; faults are counted either way.
	OnError func(msg Message, err error)

	// OnDrop is called when a message is dropped before dispatch
	// (unknown tag, shape mismatch, undecodable frame). Optional.
	OnDrop func(wire WireMessage, reason string)

	// Metrics records dispatched events, handler latency and faults,
	// and drops. Optional.
	Metrics observability.MetricsRecorder
}

// Dispatcher routes validated messages to subscribed handlers.
//
// Each transport connection owns its own instance; independent
// dispatchers share no handler state. Dispatch is synchronous: handlers
// for a message run in registration order before Dispatch returns.
type Dispatcher struct {
	config DispatcherConfig

	mu        sync.RWMutex
	handlers  map[Kind][]*registration
	wildcards []*registration

	dispatched atomic.Int64
	dropped    atomic.Int64
	faults     atomic.Int64
}

type registration struct {
	handler Handler
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		config:   config,
		handlers: make(map[Kind][]*registration),
	}
}

// Subscribe registers a handler for one kind. Handlers run in
// registration order. The returned Unsubscribe removes exactly this
// registration and is idempotent.
func (d *Dispatcher) Subscribe(kind Kind, handler Handler) Unsubscribe {
	reg := &registration{handler: handler}

	d.mu.Lock()
	d.handlers[kind] = append(d.handlers[kind], reg)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.handlers[kind] = remove(d.handlers[kind], reg)
	}
}

// SubscribeAll registers a handler for every kind. Wildcard handlers
// run after kind-specific handlers, in their own registration order.
func (d *Dispatcher) SubscribeAll(handler Handler) Unsubscribe {
	reg := &registration{handler: handler}

	d.mu.Lock()
	d.wildcards = append(d.wildcards, reg)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.wildcards = remove(d.wildcards, reg)
	}
}

// remove deletes reg from regs by identity. Absent reg is a no-op,
// which is what makes Unsubscribe idempotent.
func remove(regs []*registration, reg *registration) []*registration {
	for i, r := range regs {
		if r == reg {
			return append(regs[:i:i], regs[i+1:]...)
		}
	}
	return regs
}

// Dispatch decodes a raw transport frame and routes it.
// Undecodable or unknown frames are dropped, never an error: a bad
// message must not break the connection feeding the dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) {
	wire, err := Decode(raw)
	if err != nil {
		d.drop(ctx, WireMessage{}, "undecodable frame")
		return
	}
	d.DispatchMessage(ctx, wire)
}

// DispatchMessage discriminates an envelope and routes it to every
// handler registered for its kind, synchronously, in registration
// order. A handler fault (error or panic) is reported and counted but
// does not prevent subsequent handlers from running.
func (d *Dispatcher) DispatchMessage(ctx context.Context, wire WireMessage) {
	kind, ok := KindOf(wire)
	if !ok {
		d.drop(ctx, wire, "unknown kind")
		return
	}
	if !Matches(kind, wire) {
		d.drop(ctx, wire, "shape mismatch")
		return
	}

	msg := newMessage(kind, wire)

	// Snapshot under read lock so handlers can subscribe/unsubscribe
	// without deadlocking, and so this dispatch sees a stable set.
	d.mu.RLock()
	regs := make([]*registration, 0, len(d.handlers[kind])+len(d.wildcards))
	regs = append(regs, d.handlers[kind]...)
	regs = append(regs, d.wildcards...)
	d.mu.RUnlock()

	start := time.Now()
	faults := 0
	for _, reg := range regs {
		if !d.invoke(ctx, reg.handler, msg) {
			faults++
		}
	}

	d.dispatched.Add(1)
	if d.config.Metrics != nil {
		d.config.Metrics.RecordDispatch(ctx, string(kind), time.Since(start), faults)
	}
}

// invoke runs one handler, converting a panic into a reported fault.
// It reports whether the handler completed without fault.
func (d *Dispatcher) invoke(ctx context.Context, handler Handler, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.fault(msg, fmt.Errorf("handler panic: %v", r))
			ok = false
		}
	}()

	if err := handler(ctx, msg); err != nil {
		d.fault(msg, err)
		return false
	}
	return true
}

func (d *Dispatcher) fault(msg Message, err error) {
	d.faults.Add(1)
	if d.config.OnError != nil {
		d.config.OnError(msg, err)
	}
}

func (d *Dispatcher) drop(ctx context.Context, wire WireMessage, reason string) {
	d.dropped.Add(1)
	if d.config.Metrics != nil {
		d.config.Metrics.RecordDrop(ctx, reason)
	}
	if d.config.OnDrop != nil {
		d.config.OnDrop(wire, reason)
	}
	if d.config.Logger != nil {
		d.config.Logger.Debug("message dropped",
			slog.String("type", wire.Type),
			slog.String("reason", reason),
		)
	}
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Dispatched    int64
	Dropped       int64
	HandlerFaults int64
}

// Stats returns current counter values.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched:    d.dispatched.Load(),
		Dropped:       d.dropped.Load(),
		HandlerFaults: d.faults.Load(),
	}
}
