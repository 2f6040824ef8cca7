package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSuperseded is returned when a load resolves after a newer load was
// issued for the same merger. The stale results are discarded; the
// newer load's results win.
var ErrSuperseded = errors.New("feed: load superseded by a newer load")

// Snapshot is an observable view of the merger. Snapshots taken with no
// new data in between are identical: recomputation is pure.
type Snapshot[T Item] struct {
	// Items is the deduplicated, newest-first merged sequence.
	Items []T

	// TotalCount is the sum of the latest reported totals across
	// enabled sources.
	TotalCount int

	// IsLoading is true only while the initial load is in flight and
	// no data has been accumulated yet.
	IsLoading bool

	// IsFetching is true while any fetch is in flight, including
	// background refetches over existing data.
	IsFetching bool

	// IsFetchingNextPage is true while an additional page is in flight.
	IsFetchingNextPage bool

	// HasNextPage is true iff at least one source's latest page
	// reported more data.
	HasNextPage bool

	// Err is the first error encountered across sources, in source
	// declaration order, from the latest operation that touched them.
	Err error
}

// IsError reports whether the snapshot carries an error.
func (s Snapshot[T]) IsError() bool { return s.Err != nil }

// sourceState tracks one source's fetch lifecycle, cursor, and
// accumulated items. Cursors are never shared across sources.
type sourceState[T Item] struct {
	src     Source[T]
	phase   Phase
	cursor  string
	hasMore bool
	total   int
	items   []T
	err     error
}

// Merger presents multiple cursor-paginated sources as one logically
// ordered, deduplicated, incrementally loadable sequence.
//
// Each merger instance owns its accumulated state and cursors; mergers
// constructed with different source sets or filters share nothing. All
// methods are safe for concurrent use.
type Merger[T Item] struct {
	mu            sync.Mutex
	sources       []*sourceState[T]
	generation    uint64
	loaded        bool
	fetchingFirst bool
	fetchingNext  bool
	merged        []T
	err           error
}

// NewMerger creates a merger over the given sources. Source order is
// significant: it decides which copy of a duplicate key survives and
// which error is reported first.
func NewMerger[T Item](sources []Source[T]) *Merger[T] {
	m := &Merger[T]{}
	for _, s := range sources {
		m.sources = append(m.sources, &sourceState[T]{src: s})
	}
	return m
}

type pageResult[T Item] struct {
	page    Page[T]
	err     error
	fetched bool
}

type fetchTask[T Item] struct {
	idx    int
	fetch  FetchFunc[T]
	cursor string
}

// Load issues the first page fetch for every enabled source,
// concurrently, and blocks until all settle. Disabled sources are never
// fetched. Accumulated state is replaced by the results.
func (m *Merger[T]) Load(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.fetchingFirst = true

	var tasks []fetchTask[T]
	for i, st := range m.sources {
		if st.src.Disabled {
			continue
		}
		st.phase = PhaseFetching
		tasks = append(tasks, fetchTask[T]{idx: i, fetch: st.src.Fetch})
	}
	m.mu.Unlock()

	results := m.runFetches(ctx, tasks)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Stale-response check: a newer load owns the state now.
	if gen != m.generation {
		return ErrSuperseded
	}

	m.fetchingFirst = false
	m.loaded = true

	for i, st := range m.sources {
		r := results[i]
		if !r.fetched {
			continue
		}
		if r.err != nil {
			st.phase = PhaseFailed
			st.err = r.err
			// Prior data survives a failed refetch.
			continue
		}
		st.phase = PhaseResolved
		st.err = nil
		st.items = append([]T(nil), r.page.Items...)
		st.cursor = r.page.Pagination.NextCursor
		st.hasMore = r.page.Pagination.HasMore
		st.total = r.page.Pagination.Total
	}

	m.recompute()
	return m.err
}

// Refetch re-issues the first page fetch for all enabled sources,
// replacing the accumulated state once all refetches settle.
func (m *Merger[T]) Refetch(ctx context.Context) error {
	return m.Load(ctx)
}

// FetchNextPage advances every source whose latest page reported more
// data, concurrently, using each source's stored cursor. Exhausted
// sources are not re-fetched. New pages accumulate onto prior pages;
// the merged view is recomputed only after all fetches settle. Calling
// it with no next page available is a no-op.
func (m *Merger[T]) FetchNextPage(ctx context.Context) error {
	m.mu.Lock()
	gen := m.generation

	var tasks []fetchTask[T]
	for i, st := range m.sources {
		if st.src.Disabled || !st.hasMore || st.phase == PhaseFetching {
			continue
		}
		st.phase = PhaseFetching
		tasks = append(tasks, fetchTask[T]{idx: i, fetch: st.src.Fetch, cursor: st.cursor})
	}
	if len(tasks) == 0 {
		m.mu.Unlock()
		return nil
	}
	m.fetchingNext = true
	m.mu.Unlock()

	results := m.runFetches(ctx, tasks)

	m.mu.Lock()
	defer m.mu.Unlock()

	// The in-flight fetches have settled either way; clear the flag
	// before the staleness check or it would stick forever on the
	// superseded path.
	m.fetchingNext = false

	if gen != m.generation {
		// A refetch replaced the accumulated state while these pages
		// were in flight; appending them would clobber fresher state.
		return ErrSuperseded
	}

	for _, t := range tasks {
		st := m.sources[t.idx]
		r := results[t.idx]
		if r.err != nil {
			st.phase = PhaseFailed
			st.err = r.err
			continue
		}
		st.phase = PhaseResolved
		st.err = nil
		st.items = append(st.items, r.page.Items...)
		st.cursor = r.page.Pagination.NextCursor
		st.hasMore = r.page.Pagination.HasMore
		st.total = r.page.Pagination.Total
	}

	m.recompute()
	return m.err
}

// runFetches executes tasks concurrently and returns per-source results
// indexed like m.sources. Distinct tasks write distinct indices.
func (m *Merger[T]) runFetches(ctx context.Context, tasks []fetchTask[T]) []pageResult[T] {
	results := make([]pageResult[T], len(m.sources))

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t fetchTask[T]) {
			defer wg.Done()
			page, err := t.fetch(ctx, t.cursor)
			results[t.idx] = pageResult[T]{page: page, err: err, fetched: true}
		}(t)
	}
	wg.Wait()

	return results
}

// recompute rebuilds the merged view and first-error from accumulated
// state. Caller holds m.mu.
func (m *Merger[T]) recompute() {
	lists := make([][]T, 0, len(m.sources))
	for _, st := range m.sources {
		if st.src.Disabled {
			continue
		}
		lists = append(lists, st.items)
	}
	m.merged = Merge(lists...)

	m.err = nil
	for _, st := range m.sources {
		if st.src.Disabled || st.err == nil {
			continue
		}
		m.err = fmt.Errorf("source %s: %w", st.src.Name, st.err)
		break
	}
}

// Merge concatenates lists in order, deduplicates by key (first
// occurrence wins), and sorts newest-first by event time, breaking
// timestamp ties by key ascending. The result is deterministic for the
// same inputs.
func Merge[T Item](lists ...[]T) []T {
	seen := make(map[string]struct{})
	var out []T
	for _, list := range lists {
		for _, it := range list {
			k := it.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].EventTime(), out[j].EventTime()
		if ti.Equal(tj) {
			return out[i].Key() < out[j].Key()
		}
		return ti.After(tj)
	})

	return out
}

// HasNextPage reports whether at least one enabled source's latest page
// reported more data.
func (m *Merger[T]) HasNextPage() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.sources {
		if !st.src.Disabled && st.hasMore {
			return true
		}
	}
	return false
}

// Snapshot returns the current observable state. The item slice is a
// copy; callers may retain it across further loads.
func (m *Merger[T]) Snapshot() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot[T]{
		Items:              append([]T(nil), m.merged...),
		IsLoading:          m.fetchingFirst && !m.loaded,
		IsFetching:         m.fetchingFirst || m.fetchingNext,
		IsFetchingNextPage: m.fetchingNext,
		Err:                m.err,
	}
	for _, st := range m.sources {
		if st.src.Disabled {
			continue
		}
		snap.TotalCount += st.total
		snap.HasNextPage = snap.HasNextPage || st.hasMore
	}
	return snap
}

// SourceStatuses returns per-source lifecycle state, in declaration order.
func (m *Merger[T]) SourceStatuses() []SourceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]SourceStatus, 0, len(m.sources))
	for _, st := range m.sources {
		statuses = append(statuses, SourceStatus{
			Name:      st.src.Name,
			Phase:     st.phase,
			HasMore:   st.hasMore,
			ItemCount: len(st.items),
			Total:     st.total,
			Err:       st.err,
		})
	}
	return statuses
}
