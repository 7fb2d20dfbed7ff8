// Package metrics exposes pipeline and HTTP measurements in the Prometheus
// text format on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jnthodge/visual-bible/core/cache"
	"github.com/jnthodge/visual-bible/core/scripture"
)

const namespace = "visual_bible"

// Config selects the optional runtime collectors.
type Config struct {
	EnableProcessMetrics bool
	EnableGoMetrics      bool
}

// Collector owns the registry and every metric the service records.
type Collector struct {
	registry *prometheus.Registry

	candidates      *prometheus.CounterVec
	lineErrors      *prometheus.CounterVec
	highlightMisses prometheus.Counter
	projects        prometheus.Counter
	httpRequests    *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	renderDuration  prometheus.Histogram
}

// New creates a Collector with all metrics registered.
func New(cfg Config) *Collector {
	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(collectors.NewGoCollector())
	}

	c := &Collector{
		registry: reg,
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Reference candidates parsed, by outcome.",
		}, []string{"outcome"}),
		lineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_errors_total",
			Help:      "Candidates that failed to resolve, by error kind.",
		}, []string{"kind"}),
		highlightMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "highlight_misses_total",
			Help:      "Resolved verses with no position on the rendered page.",
		}),
		projects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_created_total",
			Help:      "Projects created.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving one submission.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one highlighted image.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
	reg.MustRegister(
		c.candidates, c.lineErrors, c.highlightMisses, c.projects,
		c.httpRequests, c.resolveDuration, c.renderDuration,
	)
	return c
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveResolution counts candidates and line errors of one submission.
func (c *Collector) ObserveResolution(res *scripture.Resolution, took time.Duration) {
	failed := len(res.Errors)
	c.candidates.WithLabelValues("resolved").Add(float64(res.Candidates - failed))
	c.candidates.WithLabelValues("failed").Add(float64(failed))
	for _, e := range res.Errors {
		c.lineErrors.WithLabelValues(string(e.Kind())).Inc()
	}
	c.resolveDuration.Observe(took.Seconds())
}

func (c *Collector) ObserveRender(took time.Duration) {
	c.renderDuration.Observe(took.Seconds())
}

func (c *Collector) ObserveHighlightMisses(n int) {
	c.highlightMisses.Add(float64(n))
}

func (c *Collector) ObserveProjectCreated() {
	c.projects.Inc()
}

// ObserveRequest records one served HTTP request. Its signature matches
// logging.StatusObserver.
func (c *Collector) ObserveRequest(method string, status int, _ time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// WatchDigestCache exports the image digest cache counters, read from
// stats at scrape time.
func (c *Collector) WatchDigestCache(stats func() cache.Stats) {
	c.registry.MustRegister(&digestCacheCollector{stats: stats})
}

var (
	digestLookupsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "digest_cache", "lookups_total"),
		"Image digest cache lookups, by result.", []string{"result"}, nil)
	digestEvictionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "digest_cache", "evictions_total"),
		"Image digests evicted from the cache.", nil, nil)
	digestEntriesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "digest_cache", "entries"),
		"Image digests currently cached.", nil, nil)
)

type digestCacheCollector struct {
	stats func() cache.Stats
}

func (d *digestCacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- digestLookupsDesc
	ch <- digestEvictionsDesc
	ch <- digestEntriesDesc
}

func (d *digestCacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := d.stats()
	ch <- prometheus.MustNewConstMetric(digestLookupsDesc, prometheus.CounterValue, float64(s.Hits), "hit")
	ch <- prometheus.MustNewConstMetric(digestLookupsDesc, prometheus.CounterValue, float64(s.Misses), "miss")
	ch <- prometheus.MustNewConstMetric(digestEvictionsDesc, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(digestEntriesDesc, prometheus.GaugeValue, float64(s.Size))
}
