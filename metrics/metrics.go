package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/nanohttp"
)

const namespace = "nanohttp"

// Collector records request metrics in its own registry
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a collector. openConnections, when not nil, is sampled on
// every scrape, typically server.Server.OpenConnections.
func New(openConnections func() int) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Requests served, by method and status code.",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Time from parsed request to sent response.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	c.registry.MustRegister(
		c.requests,
		c.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if openConnections != nil {
		c.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_connections",
				Help:      "Connections currently open.",
			},
			func() float64 { return float64(openConnections()) },
		))
	}
	return c
}

// Observe records one served request. Its signature matches
// server.Config.OnRequest.
func (c *Collector) Observe(req *nanohttp.Request, resp *nanohttp.Response, elapsed time.Duration) {
	c.requests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	c.duration.WithLabelValues(req.Method).Observe(elapsed.Seconds())
}

// Registry exposes the registry for additional collectors
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() nanohttp.Handler {
	return nanohttp.StdHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
