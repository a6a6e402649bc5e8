// Package metric provides Prometheus metrics for respkv.
//
// Metrics include:
//
//   - Command counters and latency histograms
//   - Active and total connection counts
//   - Protocol error counters
//   - Keyspace size
//
// Metrics are exposed at /metrics in Prometheus format when a metrics
// address is configured.
package metric
