package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures a NATS-backed transport.
type NATSConfig struct {
	// URL is the NATS server URL, e.g. nats.DefaultURL.
	URL string

	// Subject is the subject carrying wire messages. Wildcards are
	// allowed, e.g. "monitor.events.>".
	Subject string

	// Name is the connection name reported to the server. Optional.
	Name string
}

// NATSTransport delivers frames published on a NATS subject.
type NATSTransport struct {
	config NATSConfig

	mu      sync.Mutex
	conn    *nats.Conn
	sub     *nats.Subscription
	started bool
	closed  bool
}

// NewNATSTransport creates a NATS transport. The connection is opened
// on Start, not here.
func NewNATSTransport(config NATSConfig) (*NATSTransport, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("transport: NATS URL is required")
	}
	if config.Subject == "" {
		return nil, fmt.Errorf("transport: NATS subject is required")
	}
	return &NATSTransport{config: config}, nil
}

// Start implements Transport.
func (t *NATSTransport) Start(_ context.Context, deliver DeliverFunc) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport: already closed")
	}
	if t.started {
		return fmt.Errorf("transport: already started")
	}

	opts := []nats.Option{}
	if t.config.Name != "" {
		opts = append(opts, nats.Name(t.config.Name))
	}

	conn, err := nats.Connect(t.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	sub, err := conn.Subscribe(t.config.Subject, func(m *nats.Msg) {
		deliver(m.Data)
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("subscribe to %s: %w", t.config.Subject, err)
	}

	t.conn = conn
	t.sub = sub
	t.started = true
	return nil
}

// Close implements Transport.
func (t *NATSTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.sub != nil {
		if err := t.sub.Unsubscribe(); err != nil {
			t.conn.Close()
			return fmt.Errorf("unsubscribe: %w", err)
		}
	}
	if t.conn != nil {
		t.conn.Close()
	}
	return nil
}
