package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/event"
	"github.com/kmorrisey/watchwire/pkg/watchwire/feed"
	"github.com/kmorrisey/watchwire/pkg/watchwire/observability"
	"github.com/kmorrisey/watchwire/pkg/watchwire/rest"
)

// DefaultTiers is the dashboard default: high and critical alerts.
var DefaultTiers = NewTierFilter(TierHigh, TierCritical)

// FeedConfig configures an alert Feed.
type FeedConfig struct {
	// Client fetches alert pages from the monitoring API. Required.
	Client *rest.Client

	// Path is the alerts endpoint path. Defaults to "alerts".
	Path string

	// Tiers selects which risk tiers are fetched. Defaults to
	// DefaultTiers. Disabled tiers are never fetched and contribute
	// nothing to the merged view.
	Tiers TierFilter

	// Logger receives feed lifecycle lines. Optional.
	Logger *slog.Logger

	// Metrics records merge sizes. Optional.
	Metrics observability.MetricsRecorder

	// Spans traces loads and page fetches. Optional.
	Spans observability.SpanManager
}

// Feed is the tiered alert feed: one merger source per risk tier,
// merged newest-first, with live dispatches folded in on top.
//
// Each Feed owns its cursors and accumulated pages. Feeds built with
// different tier filters are independent and share nothing.
type Feed struct {
	merger   *feed.Merger[Alert]
	tiers    TierFilter
	queryKey string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager

	mu       sync.Mutex
	live     []Alert
	resolved map[string]time.Time
}

// NewFeed assembles the alert feed. Tier sources are declared highest
// severity first, so on a duplicate alert id the higher tier's copy wins.
func NewFeed(cfg FeedConfig) (*Feed, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("alerts: Client is required")
	}
	path := cfg.Path
	if path == "" {
		path = "alerts"
	}
	tiers := cfg.Tiers
	if tiers == nil {
		tiers = DefaultTiers
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	spans := cfg.Spans
	if spans == nil {
		spans = observability.NoopSpanManager{}
	}

	var sources []feed.Source[Alert]
	var enabled []string
	for i := len(AllTiers) - 1; i >= 0; i-- {
		tier := AllTiers[i]
		sources = append(sources, feed.Source[Alert]{
			Name:     string(tier),
			Fetch:    rest.PageFetcher[Alert](cfg.Client, string(tier), path, url.Values{"risk_level": {string(tier)}}),
			Disabled: !tiers.Enabled(tier),
		})
		if tiers.Enabled(tier) {
			enabled = append(enabled, string(tier))
		}
	}

	return &Feed{
		merger: feed.NewMerger(sources),
		tiers:  tiers,
		queryKey: feed.QueryKey(path, map[string]string{
			"risk_levels": strings.Join(enabled, ","),
		}, cfg.Client.PageSize()),
		logger:   cfg.Logger,
		metrics:  metrics,
		spans:    spans,
		resolved: make(map[string]time.Time),
	}, nil
}

// QueryKey returns the feed's deterministic identity key. Two feeds
// over the same endpoint, tiers, and page size have equal keys.
func (f *Feed) QueryKey() string { return f.queryKey }

// Load issues the first page fetch for every enabled tier and blocks
// until all settle. Live state folded in before a reload survives only
// if the backend also returns it.
func (f *Feed) Load(ctx context.Context) error {
	elapsed := observability.TimedOperation()
	observability.LogLoadStart(f.logger, f.queryKey, len(f.enabledTiers()))
	ctx, span := f.spans.StartLoadSpan(ctx, "alerts", f.queryKey)

	err := f.merger.Load(ctx)
	f.spans.EndSpanWithError(span, err)

	// A successful reload is authoritative; folded live state is
	// dropped so resolved-then-reloaded alerts cannot resurrect. On
	// failure the folded state survives alongside the prior pages.
	if err == nil {
		f.mu.Lock()
		f.live = nil
		f.mu.Unlock()
	}

	snap := f.Snapshot()
	f.metrics.RecordMergeSize(ctx, f.queryKey, len(snap.Items))
	if err != nil {
		observability.LogLoadError(f.logger, f.queryKey, err, elapsed())
		return err
	}
	observability.LogLoadComplete(f.logger, f.queryKey, elapsed(), len(snap.Items))
	return nil
}

// Refetch reloads the first page of every enabled tier.
func (f *Feed) Refetch(ctx context.Context) error {
	return f.Load(ctx)
}

// FetchNextPage advances every tier that reported more data.
func (f *Feed) FetchNextPage(ctx context.Context) error {
	ctx, span := f.spans.StartLoadSpan(ctx, "alerts.next_page", f.queryKey)
	err := f.merger.FetchNextPage(ctx)
	f.spans.EndSpanWithError(span, err)
	snap := f.Snapshot()
	f.metrics.RecordMergeSize(ctx, f.queryKey, len(snap.Items))
	return err
}

// HasNextPage reports whether any enabled tier has more data.
func (f *Feed) HasNextPage() bool { return f.merger.HasNextPage() }

// Snapshot returns the observable feed state: fetched pages with live
// dispatches folded in, deduplicated by id, newest first, resolved
// alerts removed.
func (f *Feed) Snapshot() feed.Snapshot[Alert] {
	snap := f.merger.Snapshot()

	f.mu.Lock()
	live := append([]Alert(nil), f.live...)
	resolved := make(map[string]time.Time, len(f.resolved))
	for id, at := range f.resolved {
		resolved[id] = at
	}
	f.mu.Unlock()

	// Live alerts are declared first so a live copy wins over a fetched
	// copy of the same id.
	merged := feed.Merge(live, snap.Items)

	items := merged[:0]
	for _, a := range merged {
		if _, gone := resolved[a.Key()]; gone {
			continue
		}
		items = append(items, a)
	}
	snap.Items = items
	return snap
}

// SourceStatuses returns per-tier lifecycle state, highest tier first.
func (f *Feed) SourceStatuses() []feed.SourceStatus {
	return f.merger.SourceStatuses()
}

// ApplyEvent folds one live dispatch into the feed. Alert kinds the
// feed's tier filter excludes are ignored, as are non-alert kinds.
func (f *Feed) ApplyEvent(_ context.Context, msg event.Message) error {
	switch msg.Kind {
	case event.KindAlertCreated:
		alert, err := event.DecodeData[Alert](msg)
		if err != nil {
			return fmt.Errorf("decode alert.created: %w", err)
		}
		if !f.tiers.Enabled(alert.RiskLevel) {
			return nil
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.resolved, alert.Key())
		for _, existing := range f.live {
			if existing.ID == alert.ID {
				return nil
			}
		}
		f.live = append(f.live, alert)
		return nil

	case event.KindAlertResolved:
		ref, err := event.DecodeData[struct {
			ID string `json:"id"`
		}](msg)
		if err != nil {
			return fmt.Errorf("decode alert.resolved: %w", err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.resolved[ref.ID] = msg.Timestamp
		kept := f.live[:0]
		for _, a := range f.live {
			if a.ID.String() != ref.ID {
				kept = append(kept, a)
			}
		}
		f.live = kept
		return nil
	}
	return nil
}

// Bind subscribes the feed to a dispatcher's alert lifecycle events.
// The returned Unsubscribe detaches both registrations and is idempotent.
func (f *Feed) Bind(d *event.Dispatcher) event.Unsubscribe {
	unsubCreated := d.Subscribe(event.KindAlertCreated, f.ApplyEvent)
	unsubResolved := d.Subscribe(event.KindAlertResolved, f.ApplyEvent)
	return func() {
		unsubCreated()
		unsubResolved()
	}
}

func (f *Feed) enabledTiers() []RiskTier {
	var out []RiskTier
	for _, t := range AllTiers {
		if f.tiers.Enabled(t) {
			out = append(out, t)
		}
	}
	return out
}
