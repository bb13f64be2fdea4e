// Package metrics exposes Prometheus collectors for the catalog crawler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlerPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Total number of pages fetched, labeled by page kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	crawlerBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_bytes_total",
			Help: "Total number of bytes fetched, labeled by page kind.",
		},
		[]string{"kind"},
	)

	crawlerRecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_skipped_total",
			Help: "Detail pages that produced no record, labeled by reason.",
		},
		[]string{"reason"},
	)

	crawlerRateGateWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_rate_gate_wait_seconds",
			Help:    "Histogram of time spent waiting on the rate gate.",
			Buckets: []float64{0.01, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	ingestItemsOfferedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_items_offered_total",
			Help: "Total number of records offered to the store.",
		},
	)

	ingestItemsInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_items_inserted_total",
			Help: "Total number of records newly persisted.",
		},
	)

	scrapesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapes_total",
			Help: "Total number of scrape runs, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records a fetch attempt for a page kind ("listing", "detail", "robots").
func ObservePage(kind, outcome string, bytesFetched int) {
	crawlerPagesTotal.WithLabelValues(kind, outcome).Inc()
	if bytesFetched > 0 {
		crawlerBytesTotal.WithLabelValues(kind).Add(float64(bytesFetched))
	}
}

// ObserveSkip records a detail page that did not yield a record.
func ObserveSkip(reason string) {
	crawlerRecordsSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveRateGateWait records how long a fetch was held by the rate gate.
func ObserveRateGateWait(d time.Duration) {
	crawlerRateGateWaitSeconds.Observe(d.Seconds())
}

// ObserveIngest records one ingestion batch.
func ObserveIngest(offered, inserted int) {
	ingestItemsOfferedTotal.Add(float64(offered))
	ingestItemsInsertedTotal.Add(float64(inserted))
}

// ObserveScrape increments the scrape counter for the given outcome.
func ObserveScrape(outcome string) {
	scrapesTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
