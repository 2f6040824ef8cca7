// Package feed merges independently cursor-paginated sources into one
// deduplicated, time-ordered sequence.
//
// Each source (for example one per alert risk tier) paginates on its
// own opaque cursor. The Merger fetches enabled sources concurrently,
// accumulates their pages, deduplicates by item key, and sorts the
// result newest-first. Pagination advances every source that still has
// more data; exhausted sources are left alone. A partial failure keeps
// the data that did arrive.
//
// Recomputation is pure: the same accumulated pages always produce the
// identical merged sequence, regardless of network arrival order.
//
// The package also provides deterministic query identity keys and an
// LRU-backed session cache that collapses concurrent fetches for the
// same key into a single call.
package feed
