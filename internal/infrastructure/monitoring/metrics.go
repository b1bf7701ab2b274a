package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Registry client metrics
	LedgerCalls    *prometheus.CounterVec
	LedgerDuration *prometheus.HistogramVec

	// Pipeline metrics
	Syncs         *prometheus.CounterVec
	Mints         *prometheus.CounterVec
	MintDuration  prometheus.Histogram
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	Unsynced      prometheus.Gauge

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector backed by its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		LedgerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_ledger_calls_total",
				Help: "Total number of registry calls",
			},
			[]string{"op", "status"},
		),
		LedgerDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_ledger_call_duration_seconds",
				Help:    "Registry call duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),

		Syncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_syncs_total",
				Help: "Total number of record syncs by outcome",
			},
			[]string{"outcome"},
		),
		Mints: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_mints_total",
				Help: "Total number of identity mints by result",
			},
			[]string{"result"},
		),
		MintDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_mint_duration_seconds",
				Help:    "Time from transaction submission to receipt",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_fetches_total",
				Help: "Total number of source document fetches by result",
			},
			[]string{"result"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_fetch_duration_seconds",
				Help:    "Source document fetch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
		),
		Unsynced: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_unsynced_identities",
				Help: "Minted identities whose record has not been synced",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "gateway_uptime_seconds",
			Help: "Gateway uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordLedgerCall records one registry round trip
func (m *Metrics) RecordLedgerCall(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LedgerCalls.WithLabelValues(op, status).Inc()
	m.LedgerDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSync records the outcome of a record sync
func (m *Metrics) RecordSync(outcome string) {
	if m == nil {
		return
	}
	m.Syncs.WithLabelValues(outcome).Inc()
}

// RecordMint records a mint attempt
func (m *Metrics) RecordMint(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Mints.WithLabelValues(result).Inc()
	if result == "success" {
		m.MintDuration.Observe(duration.Seconds())
	}
}

// RecordFetch records a source document fetch
func (m *Metrics) RecordFetch(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(duration.Seconds())
}

// SetUnsynced sets the number of minted but unsynced identities
func (m *Metrics) SetUnsynced(count int) {
	if m == nil {
		return
	}
	m.Unsynced.Set(float64(count))
}
