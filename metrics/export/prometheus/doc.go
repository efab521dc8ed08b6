// Package prometheus exposes Engine metrics to a Prometheus registry.
//
// [Collector] implements prometheus.Collector by reading
// Engine.MetricsSnapshot on every scrape. Counters are named
// erpauth_*_total; the request latency histogram is
// erpauth_request_latency_seconds. Nothing is registered globally: callers
// register the Collector themselves or mount [Collector.Handler], which
// serves a private registry.
package prometheus
