// Package otel publishes Engine metrics through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per Engine counter and
// one Int64ObservableGauge per cumulative latency bucket. A single callback
// reads Engine.MetricsSnapshot on each collection. The caller owns the
// MeterProvider.
package otel
