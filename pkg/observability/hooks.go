// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about catalog calls, cache lookups, icon downloads and
// template generation.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the library packages
// stay free of metrics backends. A Prometheus implementation lives in
// [github.com/enowx/forger/pkg/observability/prom].
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(prom.HTTPHooks{})
//	    observability.SetDownloadHooks(prom.DownloadHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
//	// ... do request ...
//	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, status, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit. keyType is the key family
	// ("collections", "collection", "search", "svg").
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout, cancellation).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Download Hooks
// =============================================================================

// DownloadHooks receives events from icon downloads.
type DownloadHooks interface {
	// OnIconDelivered records a delivered icon. method is "native" or "fallback".
	OnIconDelivered(ctx context.Context, format, method string, bytes int)

	// OnIconFailed records an icon that could not be produced or delivered.
	// stage is "fetch", "convert" or "deliver".
	OnIconFailed(ctx context.Context, format, stage string, err error)

	// OnBatchComplete records the end of a collection download.
	OnBatchComplete(ctx context.Context, prefix string, delivered, failed, truncated int, duration time.Duration)
}

// =============================================================================
// Generate Hooks
// =============================================================================

// GenerateHooks receives events from multi-template generation runs.
type GenerateHooks interface {
	// OnTemplateStart records the start of one template job.
	OnTemplateStart(ctx context.Context, template string, icons int)

	// OnTemplateComplete records the end of one template job.
	OnTemplateComplete(ctx context.Context, template string, generated, failed int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopDownloadHooks is a no-op implementation of DownloadHooks.
type NoopDownloadHooks struct{}

func (NoopDownloadHooks) OnIconDelivered(context.Context, string, string, int)                    {}
func (NoopDownloadHooks) OnIconFailed(context.Context, string, string, error)                     {}
func (NoopDownloadHooks) OnBatchComplete(context.Context, string, int, int, int, time.Duration) {}

// NoopGenerateHooks is a no-op implementation of GenerateHooks.
type NoopGenerateHooks struct{}

func (NoopGenerateHooks) OnTemplateStart(context.Context, string, int)                          {}
func (NoopGenerateHooks) OnTemplateComplete(context.Context, string, int, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	downloadHooks DownloadHooks = NoopDownloadHooks{}
	generateHooks GenerateHooks = NoopGenerateHooks{}
	hooksMu       sync.RWMutex
)

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetDownloadHooks registers custom download hooks.
func SetDownloadHooks(h DownloadHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		downloadHooks = h
	}
}

// SetGenerateHooks registers custom generation hooks.
func SetGenerateHooks(h GenerateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generateHooks = h
	}
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Download returns the registered download hooks.
func Download() DownloadHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return downloadHooks
}

// Generate returns the registered generation hooks.
func Generate() GenerateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generateHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
	downloadHooks = NoopDownloadHooks{}
	generateHooks = NoopGenerateHooks{}
}
