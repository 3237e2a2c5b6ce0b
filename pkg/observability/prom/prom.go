// Package prom implements the observability hooks with Prometheus metrics.
//
// Register the hooks at startup and expose [Handler] on an HTTP router:
//
//	prom.Register()
//	r.Handle("/metrics", prom.Handler())
package prom

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/enowx/forger/pkg/observability"
)

var (
	// Catalog HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_catalog_requests_total",
			Help: "Total number of catalog API requests",
		},
		[]string{"path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forger_catalog_request_duration_seconds",
			Help:    "Catalog API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_catalog_errors_total",
			Help: "Catalog API transport failures",
		},
		[]string{"path"},
	)

	// Cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_cache_lookups_total",
			Help: "Cache lookups by key family and result",
		},
		[]string{"key_type", "result"},
	)

	cacheBytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_cache_bytes_written_total",
			Help: "Bytes written to persistent caches",
		},
		[]string{"key_type"},
	)

	// Download metrics
	iconsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_icons_delivered_total",
			Help: "Icons delivered by format and delivery method",
		},
		[]string{"format", "method"},
	)

	iconBytesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forger_icon_bytes_delivered_total",
			Help: "Total bytes of delivered icon files",
		},
	)

	iconsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_icons_failed_total",
			Help: "Icons that failed by format and pipeline stage",
		},
		[]string{"format", "stage"},
	)

	batchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forger_collection_download_duration_seconds",
			Help:    "Time to download a whole collection batch run",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
		},
	)

	batchTruncatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forger_collection_icons_truncated_total",
			Help: "Icons skipped because a collection exceeded the download cap",
		},
	)

	// Generation metrics
	templatesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forger_templates_running",
			Help: "Template jobs currently running",
		},
	)

	templateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forger_template_duration_seconds",
			Help:    "Template generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"template"},
	)

	generatedIconsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forger_generated_icons_total",
			Help: "Icons written by template generation",
		},
		[]string{"result"},
	)
)

// Register installs every Prometheus hook into the observability registry.
func Register() {
	observability.SetHTTPHooks(HTTPHooks{})
	observability.SetCacheHooks(CacheHooks{})
	observability.SetDownloadHooks(DownloadHooks{})
	observability.SetGenerateHooks(GenerateHooks{})
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPHooks records catalog requests.
type HTTPHooks struct{}

func (HTTPHooks) OnRequest(context.Context, string, string, string) {}

func (HTTPHooks) OnResponse(_ context.Context, _, _, path string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (HTTPHooks) OnError(_ context.Context, _, _, path string, _ error) {
	httpErrorsTotal.WithLabelValues(path).Inc()
}

// CacheHooks records cache lookups.
type CacheHooks struct{}

func (CacheHooks) OnCacheHit(_ context.Context, keyType string) {
	cacheLookupsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (CacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	cacheLookupsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (CacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	cacheBytesWritten.WithLabelValues(keyType).Add(float64(size))
}

// DownloadHooks records icon downloads.
type DownloadHooks struct{}

func (DownloadHooks) OnIconDelivered(_ context.Context, format, method string, n int) {
	iconsDeliveredTotal.WithLabelValues(format, method).Inc()
	iconBytesDelivered.Add(float64(n))
}

func (DownloadHooks) OnIconFailed(_ context.Context, format, stage string, _ error) {
	iconsFailedTotal.WithLabelValues(format, stage).Inc()
}

func (DownloadHooks) OnBatchComplete(_ context.Context, _ string, _, _, truncated int, d time.Duration) {
	batchDuration.Observe(d.Seconds())
	batchTruncatedTotal.Add(float64(truncated))
}

// GenerateHooks records template generation.
type GenerateHooks struct{}

func (GenerateHooks) OnTemplateStart(context.Context, string, int) {
	templatesRunning.Inc()
}

func (GenerateHooks) OnTemplateComplete(_ context.Context, template string, generated, failed int, d time.Duration) {
	templatesRunning.Dec()
	templateDuration.WithLabelValues(template).Observe(d.Seconds())
	generatedIconsTotal.WithLabelValues("ok").Add(float64(generated))
	generatedIconsTotal.WithLabelValues("failed").Add(float64(failed))
}
