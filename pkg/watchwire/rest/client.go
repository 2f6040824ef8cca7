// Package rest fetches paginated records from the monitoring API.
//
// A Client turns an endpoint path into a feed.FetchFunc, so feed sources
// stay transport-agnostic while the client owns cursors on the wire,
// retries, and error classification.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kmorrisey/watchwire/pkg/watchwire/errors"
	"github.com/kmorrisey/watchwire/pkg/watchwire/feed"
	"github.com/kmorrisey/watchwire/pkg/watchwire/observability"
)

// DefaultPageSize is used when ClientConfig.PageSize is zero.
const DefaultPageSize = 20

// maxErrorBody caps how much of an error response body is kept for the
// error message.
const maxErrorBody = 512

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the monitoring API root, e.g. "https://hub.local/api".
	BaseURL string

	// HTTPClient is the underlying client. Defaults to a client with a
	// 30 second timeout.
	HTTPClient *http.Client

	// Retry controls per-request retry behavior. Zero value means
	// errors.DefaultRetry.
	Retry errors.RetryConfig

	// PageSize is sent as the page_size query parameter.
	PageSize int

	// Logger receives debug lines for requests. Optional.
	Logger *slog.Logger

	// Metrics records fetch counts and latency. Optional.
	Metrics observability.MetricsRecorder

	// Spans traces individual page fetches. Optional.
	Spans observability.SpanManager
}

// Client issues paginated GET requests against the monitoring API.
type Client struct {
	baseURL  string
	http     *http.Client
	retry    errors.RetryConfig
	pageSize int
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

// NewClient creates a Client. BaseURL is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest: BaseURL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = errors.DefaultRetry
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	spans := cfg.Spans
	if spans == nil {
		spans = observability.NoopSpanManager{}
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		http:     httpClient,
		retry:    retry,
		pageSize: pageSize,
		logger:   cfg.Logger,
		metrics:  metrics,
		spans:    spans,
	}, nil
}

// PageSize returns the page size the client requests.
func (c *Client) PageSize() int {
	return c.pageSize
}

// GetJSON issues a GET against path with the given query parameters and
// decodes the response body into out. Transient failures are retried
// per the client's retry config.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	result := errors.WithRetryContext(ctx, c.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.doGet(ctx, endpoint, out)
	})
	if result.Err != nil {
		return result.Err
	}
	if result.Attempts > 1 && c.logger != nil {
		c.logger.Debug("request succeeded after retry",
			slog.String("endpoint", endpoint),
			slog.Int("attempts", result.Attempts),
		)
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u = u.JoinPath(path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &errors.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// PageFetcher builds a feed.FetchFunc for one paginated endpoint.
// Extra query parameters (filters) are fixed per fetcher; the cursor
// and page_size parameters are managed per call.
func PageFetcher[T feed.Item](c *Client, name, path string, filters url.Values) feed.FetchFunc[T] {
	return func(ctx context.Context, cursor string) (feed.Page[T], error) {
		query := url.Values{}
		for k, vs := range filters {
			for _, v := range vs {
				query.Add(k, v)
			}
		}
		query.Set("page_size", strconv.Itoa(c.pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		start := time.Now()
		ctx, span := c.spans.StartFetchSpan(ctx, name)
		var page feed.Page[T]
		err := c.GetJSON(ctx, path, query, &page)
		c.spans.EndSpanWithError(span, err)
		c.metrics.RecordPageFetch(ctx, name, time.Since(start), err)
		if err != nil {
			return feed.Page[T]{}, err
		}
		return page, nil
	}
}

// CachedPageFetcher wraps PageFetcher with a session cache. Identical
// in-flight fetches collapse into one upstream call and resolved pages
// are served from memory until the query key is invalidated. queryKey
// must canonically identify the (path, filters, page size) combination,
// typically via feed.QueryKey.
func CachedPageFetcher[T feed.Item](c *Client, cache *feed.SessionCache[T], queryKey, name, path string, filters url.Values) feed.FetchFunc[T] {
	fetch := PageFetcher[T](c, name, path, filters)
	return func(ctx context.Context, cursor string) (feed.Page[T], error) {
		return cache.Fetch(ctx, feed.PageKey(queryKey, cursor), func(ctx context.Context) (feed.Page[T], error) {
			return fetch(ctx, cursor)
		})
	}
}
