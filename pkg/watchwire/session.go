// Package watchwire assembles the monitoring client: a typed event
// dispatch layer fed by a transport, a tiered dual-source alert feed
// over the REST API, a per-zone trust view, and a local event journal.
package watchwire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/alerts"
	"github.com/kmorrisey/watchwire/pkg/watchwire/config"
	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
	"github.com/kmorrisey/watchwire/pkg/watchwire/journal"
	"github.com/kmorrisey/watchwire/pkg/watchwire/observability"
	"github.com/kmorrisey/watchwire/pkg/watchwire/rest"
	"github.com/kmorrisey/watchwire/pkg/watchwire/transport"
)

// SessionConfig configures a Session beyond what the config file carries.
type SessionConfig struct {
	// Config holds the loaded configuration. config.KeyAPIBaseURL is
	// required.
	Config config.Config

	// Logger receives structured lines from every component. Optional.
	Logger *slog.Logger

	// Metrics records dispatch and feed metrics. Optional.
	Metrics observability.MetricsRecorder

	// Spans traces feed loads and page fetches. Optional.
	Spans observability.SpanManager

	// Transport overrides the config-derived transport. When nil and
	// config.KeyNATSURL is set, a NATS transport is built; otherwise an
	// in-process channel transport is used.
	Transport transport.Transport

	// HTTPClient overrides the REST client's underlying client. Optional.
	HTTPClient *http.Client
}

// Session is one assembled monitoring client session.
type Session struct {
	// Dispatcher routes live wire messages.
	Dispatcher *event.Dispatcher

	// Alerts is the tiered alert feed.
	Alerts *alerts.Feed

	// Trust is the per-zone trust view.
	Trust *alerts.TrustMatrix

	// Journal records every dispatched event.
	Journal journal.Journal

	transport transport.Transport
	unsubs    []event.Unsubscribe
}

// NewSessionFromFile loads a YAML or JSON config file and wires a
// session from it. Any Config already set on cfg is replaced.
func NewSessionFromFile(path string, cfg SessionConfig) (*Session, error) {
	loaded, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Config = loaded
	return NewSession(cfg)
}

// NewSession wires a session from configuration. Nothing is fetched or
// subscribed until Start.
func NewSession(cfg SessionConfig) (*Session, error) {
	c := cfg.Config

	baseURL := c.String(config.KeyAPIBaseURL, "")
	if baseURL == "" {
		return nil, fmt.Errorf("watchwire: %s is required", config.KeyAPIBaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: c.Duration(config.KeyFetchTimeout, 30*time.Second)}
	}

	client, err := rest.NewClient(rest.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		PageSize:   c.Int(config.KeyPageSize, rest.DefaultPageSize),
		Logger:     cfg.Logger,
		Metrics:    cfg.Metrics,
		Spans:      cfg.Spans,
	})
	if err != nil {
		return nil, err
	}

	var tiers alerts.TierFilter
	if c.Has(config.KeyRiskTiers) {
		tiers = alerts.ParseTierFilter(c.StringSlice(config.KeyRiskTiers, nil))
	}

	alertFeed, err := alerts.NewFeed(alerts.FeedConfig{
		Client:  client,
		Tiers:   tiers,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
		Spans:   cfg.Spans,
	})
	if err != nil {
		return nil, err
	}

	var jnl journal.Journal
	if path := c.String(config.KeyJournalPath, ""); path != "" {
		jnl, err = journal.NewSQLiteJournal(path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
	} else {
		jnl = journal.NewMemoryJournal()
	}

	tr := cfg.Transport
	if tr == nil {
		if natsURL := c.String(config.KeyNATSURL, ""); natsURL != "" {
			tr, err = transport.NewNATSTransport(transport.NATSConfig{
				URL:     natsURL,
				Subject: c.String(config.KeyEventSubject, "monitor.events"),
				Name:    "watchwire",
			})
			if err != nil {
				jnl.Close()
				return nil, err
			}
		} else {
			tr = transport.NewChannelTransport()
		}
	}

	dispatcher := event.NewDispatcher(event.DispatcherConfig{
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
		OnError: func(msg event.Message, err error) {
			observability.LogHandlerFault(cfg.Logger, string(msg.Kind), err)
		},
		OnDrop: func(wire event.WireMessage, reason string) {
			observability.LogDrop(cfg.Logger, wire.Type, reason)
		},
	})

	return &Session{
		Dispatcher: dispatcher,
		Alerts:     alertFeed,
		Trust:      alerts.NewTrustMatrix(),
		Journal:    jnl,
		transport:  tr,
	}, nil
}

// Start binds the feed, trust matrix, and journal to the dispatcher,
// then begins transport delivery.
func (s *Session) Start(ctx context.Context) error {
	s.unsubs = append(s.unsubs,
		s.Alerts.Bind(s.Dispatcher),
		s.Trust.Bind(s.Dispatcher),
		journal.Attach(s.Dispatcher, s.Journal),
	)
	if err := transport.Run(ctx, s.transport, s.Dispatcher); err != nil {
		s.detach()
		return err
	}
	return nil
}

// Close stops transport delivery, detaches subscriptions, and closes
// the journal.
func (s *Session) Close() error {
	err := s.transport.Close()
	s.detach()
	if cerr := s.Journal.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Session) detach() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}
