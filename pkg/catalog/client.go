package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/enowx/forger/pkg/cache"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/httputil"
	"github.com/enowx/forger/pkg/observability"
)

// DefaultBaseURL is the public Iconify API.
const DefaultBaseURL = "https://api.iconify.design"

// DefaultTimeout bounds every catalog request.
const DefaultTimeout = 15 * time.Second

// SearchLimit is the result limit sent with every search.
const SearchLimit = 100

var (
	// ErrNotFound is returned when the catalog answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, bad status).
	ErrNetwork = errors.New("network error")
)

// Client talks to the catalog API. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	baseURL    string
	headers    map[string]string
	svgCache   cache.Cache
	svgTTL     time.Duration
	attempts   int
	retryDelay time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL points the client at another catalog deployment.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = h }
}

// WithSVGCache stores fetched vector sources in backend for ttl.
func WithSVGCache(backend cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.svgCache = backend
		c.svgTTL = ttl
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.retryDelay = delay
	}
}

// NewClient creates a catalog client with a [DefaultTimeout] bound, three
// attempts per request and no vector source cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		headers:    map[string]string{"Accept": "application/json"},
		svgCache:   cache.NewNullCache(),
		attempts:   3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the catalog root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// =============================================================================
// Endpoints
// =============================================================================

// Collections fetches every collection, sorted by descending icon count.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	body, err := c.fetch(ctx, "/collections", nil)
	if err != nil {
		return nil, err
	}
	return ParseCollections(body)
}

// Collection fetches the icon names of one collection.
func (c *Client) Collection(ctx context.Context, prefix string) (IconList, error) {
	if err := ferrors.ValidatePrefix(prefix); err != nil {
		return IconList{}, err
	}
	body, err := c.fetch(ctx, "/collection", url.Values{"prefix": {prefix}})
	if err != nil {
		return IconList{}, err
	}
	return ParseIconList(body)
}

// Search runs a full-text icon search. An empty prefix searches every
// collection; a non-positive limit means [SearchLimit].
func (c *Client) Search(ctx context.Context, query, prefix string, limit int) ([]Identifier, error) {
	if limit <= 0 {
		limit = SearchLimit
	}
	q := url.Values{"query": {query}, "limit": {strconv.Itoa(limit)}}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	body, err := c.fetch(ctx, "/search", q)
	if err != nil {
		return nil, err
	}
	return ParseSearch(body)
}

// SVGURL returns the address of an icon's vector source.
func (c *Client) SVGURL(prefix, name, color string) string {
	u := c.baseURL + "/" + url.PathEscape(prefix) + "/" + url.PathEscape(name) + ".svg"
	if color != "" {
		u += "?color=" + url.QueryEscape(color)
	}
	return u
}

// SVG fetches the vector source of one icon, consulting the vector source
// cache first.
func (c *Client) SVG(ctx context.Context, prefix, name, color string) (string, error) {
	if err := ferrors.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	if err := ferrors.ValidateIconName(name); err != nil {
		return "", err
	}

	key := cache.Key("svg", prefix, name, color)
	if data, ok, _ := c.svgCache.Get(ctx, key); ok {
		observability.Cache().OnCacheHit(ctx, "svg")
		return string(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, "svg")

	var q url.Values
	if color != "" {
		q = url.Values{"color": {color}}
	}
	body, err := c.fetch(ctx, "/"+url.PathEscape(prefix)+"/"+url.PathEscape(name)+".svg", q)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty svg body", ErrMalformed)
	}

	if err := c.svgCache.Set(ctx, key, body, c.svgTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "svg", len(body))
	}
	return string(body), nil
}

// =============================================================================
// HTTP plumbing
// =============================================================================

// fetch GETs path with retries and returns the whole body.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body []byte
	err := httputil.Retry(ctx, c.attempts, c.retryDelay, func() error {
		b, err := c.doRequest(ctx, u, path)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return body, err
}

func (c *Client) doRequest(ctx context.Context, rawURL, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host := req.URL.Host
	hooks.OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: read body: %v", ErrNetwork, err)}
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
