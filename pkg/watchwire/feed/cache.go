package feed

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SessionCache deduplicates page fetches by key for the lifetime of a
// client session. Concurrent fetches for the same key collapse into a
// single upstream call; resolved pages are retained in an LRU so
// identical re-requests are served from memory until invalidated.
type SessionCache[T Item] struct {
	pages *lru.Cache[string, Page[T]]

	mu       sync.Mutex
	inflight map[string]*inflightCall[T]
}

type inflightCall[T Item] struct {
	done chan struct{}
	page Page[T]
	err  error
}

// NewSessionCache creates a cache holding up to size resolved pages.
func NewSessionCache[T Item](size int) (*SessionCache[T], error) {
	pages, err := lru.New[string, Page[T]](size)
	if err != nil {
		return nil, err
	}
	return &SessionCache[T]{
		pages:    pages,
		inflight: make(map[string]*inflightCall[T]),
	}, nil
}

// Fetch returns the page for key, fetching it at most once. Callers
// arriving while a fetch for the same key is in flight wait for that
// fetch and share its result. Errors are not cached; the next call
// retries.
func (c *SessionCache[T]) Fetch(ctx context.Context, key string, fetch func(ctx context.Context) (Page[T], error)) (Page[T], error) {
	if page, ok := c.pages.Get(key); ok {
		return page, nil
	}

	c.mu.Lock()
	if call, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.page, call.err
		case <-ctx.Done():
			return Page[T]{}, ctx.Err()
		}
	}

	call := &inflightCall[T]{done: make(chan struct{})}
	c.inflight[key] = call
	c.mu.Unlock()

	call.page, call.err = fetch(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	if call.err == nil {
		c.pages.Add(key, call.page)
	}
	close(call.done)

	return call.page, call.err
}

// Invalidate removes every cached page whose key starts with prefix.
// Passing a query key invalidates all of that query's pages.
func (c *SessionCache[T]) Invalidate(prefix string) {
	for _, key := range c.pages.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.pages.Remove(key)
		}
	}
}

// Purge drops all cached pages.
func (c *SessionCache[T]) Purge() {
	c.pages.Purge()
}

// Len returns the number of cached pages.
func (c *SessionCache[T]) Len() int {
	return c.pages.Len()
}
