package feed

import (
	"context"
	"time"
)

// Item is a record that can be merged across sources.
type Item interface {
	// Key returns the unique identity used for deduplication.
	Key() string

	// EventTime returns the timestamp used for newest-first ordering.
	EventTime() time.Time
}

// Pagination carries a source's continuation state, as returned by the
// backend alongside each page.
type Pagination struct {
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
	Total      int    `json:"total"`
}

// Page is one fetched page from a single source.
type Page[T Item] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// FetchFunc fetches one page from a source. An empty cursor requests
// the first page. Implementations must be idempotent per cursor value
// and surface failures as errors.
type FetchFunc[T Item] func(ctx context.Context, cursor string) (Page[T], error)

// Source describes one paginated data source.
type Source[T Item] struct {
	// Name identifies the source in errors and logs.
	Name string

	// Fetch retrieves pages for this source.
	Fetch FetchFunc[T]

	// Disabled excludes the source entirely: it is never fetched and
	// contributes nothing to the merged view.
	Disabled bool
}

// Phase is a source's position in its fetch lifecycle.
type Phase int

const (
	// PhaseIdle means no fetch has been issued yet.
	PhaseIdle Phase = iota

	// PhaseFetching means a page fetch is in flight.
	PhaseFetching

	// PhaseResolved means the latest fetch succeeded.
	PhaseResolved

	// PhaseFailed means the latest fetch failed.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseResolved:
		return "resolved"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SourceStatus is an observable snapshot of one source's state.
type SourceStatus struct {
	Name      string
	Phase     Phase
	HasMore   bool
	ItemCount int
	Total     int
	Err       error
}
