package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wwerrors "github.com/kmorrisey/watchwire/pkg/watchwire/errors"
	"github.com/kmorrisey/watchwire/pkg/watchwire/feed"
)

type alertRecord struct {
	ID        string    `json:"id"`
	RiskLevel string    `json:"risk_level"`
	CreatedAt time.Time `json:"created_at"`
}

func (a alertRecord) Key() string          { return a.ID }
func (a alertRecord) EventTime() time.Time { return a.CreatedAt }

func newTestClient(t *testing.T, srv *httptest.Server, retry wwerrors.RetryConfig) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL:  srv.URL + "/api",
		Retry:    retry,
		PageSize: 2,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestPageFetcherFirstPage(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "/api/alerts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"id": "a1", "risk_level": "critical", "created_at": "2026-08-25T10:02:00Z"},
				{"id": "a2", "risk_level": "critical", "created_at": "2026-08-25T10:01:00Z"}
			],
			"pagination": {"has_more": true, "next_cursor": "c2", "total": 5}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", url.Values{"risk_level": {"critical"}})

	page, err := fetch(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "critical", gotQuery.Get("risk_level"))
	assert.Equal(t, "2", gotQuery.Get("page_size"))
	assert.Empty(t, gotQuery.Get("cursor"))

	require.Len(t, page.Items, 2)
	assert.Equal(t, "a1", page.Items[0].ID)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, "c2", page.Pagination.NextCursor)
	assert.Equal(t, 5, page.Pagination.Total)
}

func TestPageFetcherSendsCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c2", r.URL.Query().Get("cursor"))
		w.Write([]byte(`{"items": [], "pagination": {"has_more": false, "next_cursor": "", "total": 5}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", nil)

	page, err := fetch(context.Background(), "c2")
	require.NoError(t, err)
	assert.False(t, page.Pagination.HasMore)
}

func TestGetJSONHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", nil)

	_, err := fetch(context.Background(), "")
	require.Error(t, err)

	var httpErr *wwerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestGetJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", nil)

	_, err := fetch(context.Background(), "")
	require.Error(t, err)

	var decodeErr *wwerrors.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestGetJSONRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"items": [], "pagination": {"has_more": false, "next_cursor": "", "total": 0}}`))
	}))
	defer srv.Close()

	retry := wwerrors.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}
	c := newTestClient(t, srv, retry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", nil)

	_, err := fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSONDoesNotRetryPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	retry := wwerrors.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		BackoffFactor:  2.0,
	}
	c := newTestClient(t, srv, retry)
	fetch := PageFetcher[alertRecord](c, "critical", "alerts", nil)

	_, err := fetch(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedPageFetcherServesRepeatsFromMemory(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"items": [], "pagination": {"has_more": false, "next_cursor": "", "total": 0}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	cache, err := feed.NewSessionCache[alertRecord](8)
	require.NoError(t, err)

	queryKey := feed.QueryKey("alerts", map[string]string{"risk_level": "critical"}, c.PageSize())
	fetch := CachedPageFetcher[alertRecord](c, cache, queryKey, "critical", "alerts", nil)

	_, err = fetch(context.Background(), "")
	require.NoError(t, err)
	_, err = fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// A different cursor is a different page.
	_, err = fetch(context.Background(), "c2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	// Invalidating the query key forces a refetch.
	cache.Invalidate(queryKey)
	_, err = fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPageFetcherAsSource(t *testing.T) {
	// End to end: a real HTTP-backed source driven through the merger.
	pages := []string{
		`{"items": [
			{"id": "a1", "risk_level": "critical", "created_at": "2026-08-25T10:02:00Z"},
			{"id": "a2", "risk_level": "critical", "created_at": "2026-08-25T10:01:00Z"}
		], "pagination": {"has_more": true, "next_cursor": "c2", "total": 3}}`,
		`{"items": [
			{"id": "a3", "risk_level": "critical", "created_at": "2026-08-25T10:00:00Z"}
		], "pagination": {"has_more": false, "next_cursor": "", "total": 3}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "c2" {
			w.Write([]byte(pages[1]))
			return
		}
		w.Write([]byte(pages[0]))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, wwerrors.NoRetry)
	m := feed.NewMerger([]feed.Source[alertRecord]{
		{Name: "critical", Fetch: PageFetcher[alertRecord](c, "critical", "alerts", nil)},
	})

	require.NoError(t, m.Load(context.Background()))
	assert.True(t, m.HasNextPage())

	require.NoError(t, m.FetchNextPage(context.Background()))
	snap := m.Snapshot()
	require.Len(t, snap.Items, 3)
	assert.Equal(t, "a1", snap.Items[0].Key())
	assert.Equal(t, "a3", snap.Items[2].Key())
	assert.False(t, snap.HasNextPage)
}
