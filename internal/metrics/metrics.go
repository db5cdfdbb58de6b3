// Package metrics exposes Prometheus collectors for page views, renders,
// uploads and HTTP traffic. Collectors live on a private registry so several
// modules can coexist in one process.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mdpages"

// Metrics groups the module collectors.
type Metrics struct {
	registry *prometheus.Registry

	pageViews      prometheus.Counter
	renderFailures *prometheus.CounterVec
	assetUploads   *prometheus.CounterVec
	assetBytes     prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry. Go runtime and process
// collectors are included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		pageViews: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_views_total",
			Help:      "Counted public page views.",
		}),
		renderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_fragment_failures_total",
			Help:      "Fenced code blocks that fell back to plain output.",
		}, []string{"language"}),
		assetUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_uploads_total",
			Help:      "Stored asset uploads.",
		}, []string{"category"}),
		assetBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_upload_bytes_total",
			Help:      "Bytes written by asset uploads.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the backing registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PageViewed() {
	m.pageViews.Inc()
}

// RenderFailed counts a fragment failure. Languages chroma does not know are
// reported as "unknown" so fence info strings cannot grow the label set.
func (m *Metrics) RenderFailed(language string) {
	m.renderFailures.WithLabelValues(languageLabel(language)).Inc()
}

func languageLabel(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "none"
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return "unknown"
	}
	return strings.ToLower(lexer.Config().Name)
}

func (m *Metrics) AssetUploaded(category string, size int64) {
	m.assetUploads.WithLabelValues(category).Inc()
	if size > 0 {
		m.assetBytes.Add(float64(size))
	}
}

// Middleware records request counts and latency. Routes are labelled by
// their chi pattern so slugs and ids do not inflate cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
