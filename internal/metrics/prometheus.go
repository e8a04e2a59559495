package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	renders  *prom.CounterVec
	failures *prom.CounterVec
	bytes    *prom.HistogramVec
	duration *prom.HistogramVec
}

// NewPrometheusRecorder creates the page metrics and registers them on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	pr := &PrometheusRecorder{
		renders: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "astra",
			Name:      "page_renders_total",
			Help:      "Complete pages served, by page",
		}, []string{"page"}),
		failures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "astra",
			Name:      "page_failures_total",
			Help:      "Pages that could not be served, by page and reason",
		}, []string{"page", "reason"}),
		bytes: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "astra",
			Name:      "page_bytes",
			Help:      "Size of served documents in bytes",
			Buckets:   prom.ExponentialBuckets(1024, 2, 8),
		}, []string{"page"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "astra",
			Name:      "page_render_seconds",
			Help:      "Time spent assembling a page",
			Buckets:   prom.DefBuckets,
		}, []string{"page"}),
	}
	reg.MustRegister(pr.renders, pr.failures, pr.bytes, pr.duration)
	return pr
}

func (p *PrometheusRecorder) PageRendered(page string, bytes int, d time.Duration) {
	p.renders.WithLabelValues(page).Inc()
	p.bytes.WithLabelValues(page).Observe(float64(bytes))
	p.duration.WithLabelValues(page).Observe(d.Seconds())
}

func (p *PrometheusRecorder) PageFailed(page, reason string) {
	p.failures.WithLabelValues(page, reason).Inc()
}

// HTTPHandler serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ Recorder = (*PrometheusRecorder)(nil)
