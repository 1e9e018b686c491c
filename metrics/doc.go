// Package metrics exports request counters, latency histograms and the open
// connection count in the Prometheus format.
//
//	collector := metrics.New(srv.OpenConnections)
//	cfg.OnRequest = collector.Observe
//	srv.Handle("GET", "/metrics", collector.Handler())
package metrics
