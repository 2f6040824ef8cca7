package transport

import (
	"context"
	"fmt"
	"sync"
)

// ChannelTransport delivers frames pushed through Send. It backs tests
// and in-process wiring where no broker is available.
type ChannelTransport struct {
	mu      sync.Mutex
	deliver DeliverFunc
	started bool
	closed  bool
}

// NewChannelTransport creates an in-process transport.
func NewChannelTransport() *ChannelTransport {
	return &ChannelTransport{}
}

// Start implements Transport.
func (t *ChannelTransport) Start(_ context.Context, deliver DeliverFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport: already closed")
	}
	if t.started {
		return fmt.Errorf("transport: already started")
	}
	t.deliver = deliver
	t.started = true
	return nil
}

// Send delivers one frame synchronously. Frames sent before Start or
// after Close are dropped.
func (t *ChannelTransport) Send(raw []byte) {
	t.mu.Lock()
	deliver := t.deliver
	closed := t.closed
	t.mu.Unlock()

	if closed || deliver == nil {
		return
	}
	deliver(raw)
}

// Close implements Transport.
func (t *ChannelTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.deliver = nil
	return nil
}
