// Package metric provides Prometheus metrics for respkv.
package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "respkv"

// Command results used as the "result" label.
const (
	ResultOK          = "ok"
	ResultError       = "error"
	ResultRateLimited = "rate_limited"
)

// Protocol error kinds used as the "kind" label.
const (
	KindFrame   = "frame"
	KindCorrupt = "corrupt"
)

// Registry holds all server metrics.
//
// A nil *Registry is valid and records nothing, so components can take one
// unconditionally.
type Registry struct {
	reg *prometheus.Registry

	commandsTotal     *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	protocolErrors    *prometheus.CounterVec
}

// NewRegistry creates a registry with the server metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands processed, by command and result",
		}, []string{"command", "result"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}, []string{"command"}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections accepted since start",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Rejected frames (frame) and closed corrupt streams (corrupt)",
		}, []string{"kind"}),
	}

	r.reg.MustRegister(
		r.commandsTotal,
		r.commandDuration,
		r.connectionsActive,
		r.connectionsTotal,
		r.protocolErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RegisterKeyspace exposes the number of stored keys as a gauge.
func (r *Registry) RegisterKeyspace(count func() int) {
	if r == nil {
		return
	}
	r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "keys",
		Help:      "Entries held in the keyspace, including expired ones not yet overwritten",
	}, func() float64 {
		return float64(count())
	}))
}

// ObserveCommand records one processed command.
func (r *Registry) ObserveCommand(command, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.commandsTotal.WithLabelValues(command, result).Inc()
	r.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ConnectionOpened records an accepted connection.
func (r *Registry) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connectionsTotal.Inc()
	r.connectionsActive.Inc()
}

// ConnectionClosed records a closed connection.
func (r *Registry) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

// ProtocolError records a decoding failure of the given kind.
func (r *Registry) ProtocolError(kind string) {
	if r == nil {
		return
	}
	r.protocolErrors.WithLabelValues(kind).Inc()
}

// Gatherer returns the underlying Prometheus gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing Handler at /metrics on addr.
func (r *Registry) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
