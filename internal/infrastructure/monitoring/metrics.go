package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gonum.org/v1/gonum/stat"

	"github.com/GriffinCanCode/playground/internal/engine/sandbox"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Run metrics
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	RunFailures    *prometheus.CounterVec
	RunsRejected   *prometheus.CounterVec
	DeferredErrors *prometheus.CounterVec

	// Output metrics
	LogEntries     *prometheus.CounterVec
	LogEvictions   prometheus.Counter
	RendersTotal   prometheus.Counter
	SnippetsLoaded prometheus.Gauge

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	// Recent run durations in seconds, a ring of latencyWindow samples
	latencies []float64
	nextLatency int

	mu sync.RWMutex
}

// latencyWindow is how many recent runs feed the latency quantiles
const latencyWindow = 512

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	TotalRuns      int64   `json:"total_runs"`
	FailedRuns     int64   `json:"failed_runs"`
	ActiveSessions int64   `json:"active_sessions"`
	TotalDuration  float64 `json:"total_duration_seconds"` // sum of all request durations
	RequestCount   int64   `json:"request_count"`          // count for averaging
	UptimeSeconds  float64 `json:"uptime_seconds"`
	RunLatency     Latency `json:"run_latency"`
}

// Latency summarizes recent run durations in milliseconds
type Latency struct {
	Samples int     `json:"samples"`
	MeanMs  float64 `json:"mean_ms"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// NewMetrics registers the collectors on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Run metrics
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_runs_total",
				Help: "Total number of snippet runs by outcome",
			},
			[]string{"profile", "outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playground_run_duration_seconds",
				Help:    "Synchronous run duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
			[]string{"profile"},
		),
		RunFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_run_failures_total",
				Help: "Total number of failed runs by phase",
			},
			[]string{"profile", "phase"},
		),
		RunsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_runs_rejected_total",
				Help: "Runs rejected because another run was in progress",
			},
			[]string{"profile"},
		),
		DeferredErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_deferred_errors_total",
				Help: "Timer callbacks that threw after their run finished",
			},
			[]string{"profile"},
		),

		// Output metrics
		LogEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_log_entries_total",
				Help: "Entries appended to output sinks by kind",
			},
			[]string{"kind"},
		),
		LogEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_log_evictions_total",
				Help: "Entries evicted from full output sinks",
			},
		),
		RendersTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_renders_total",
				Help: "Trees delivered to render targets",
			},
		),
		SnippetsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_catalog_snippets",
				Help: "Number of snippets in the catalog",
			},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_sessions_active",
				Help: "Number of active sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "playground_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "playground_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playground_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "playground_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RunCompleted implements runner.Recorder
func (m *Metrics) RunCompleted(profile string, outcome sandbox.OutcomeKind, duration time.Duration) {
	m.RunsTotal.WithLabelValues(profile, string(outcome)).Inc()
	m.RunDuration.WithLabelValues(profile).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRuns++
	if outcome == sandbox.OutcomeFailed {
		m.snapshot.FailedRuns++
	}
	if len(m.latencies) < latencyWindow {
		m.latencies = append(m.latencies, duration.Seconds())
	} else {
		m.latencies[m.nextLatency] = duration.Seconds()
		m.nextLatency = (m.nextLatency + 1) % latencyWindow
	}
	m.mu.Unlock()
}

// RunFailed implements runner.Recorder
func (m *Metrics) RunFailed(profile string, phase types.Phase) {
	m.RunFailures.WithLabelValues(profile, string(phase)).Inc()
}

// RunRejected implements runner.Recorder
func (m *Metrics) RunRejected(profile string) {
	m.RunsRejected.WithLabelValues(profile).Inc()
}

// DeferredFailed implements runner.Recorder
func (m *Metrics) DeferredFailed(profile string) {
	m.DeferredErrors.WithLabelValues(profile).Inc()
}

// EntryAppended implements sink.Observer
func (m *Metrics) EntryAppended(kind types.Kind) {
	m.LogEntries.WithLabelValues(string(kind)).Inc()
}

// EntriesEvicted implements sink.Observer
func (m *Metrics) EntriesEvicted(n int) {
	m.LogEvictions.Add(float64(n))
}

// RenderDelivered counts a tree delivered to a session's render target
func (m *Metrics) RenderDelivered() {
	m.RendersTotal.Inc()
}

// SetSnippets sets the catalog size
func (m *Metrics) SetSnippets(count int) {
	m.SnippetsLoaded.Set(float64(count))
}

// SessionOpened records a new session
func (m *Metrics) SessionOpened() {
	m.SessionsCreated.Inc()
	m.SessionsActive.Inc()
	m.mu.Lock()
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// SessionClosed records a removed session
func (m *Metrics) SessionClosed() {
	m.SessionsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns current values for the JSON stats endpoint
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	s.RunLatency = summarize(m.latencies)
	return s
}

// summarize computes latency quantiles over samples given in seconds
func summarize(samples []float64) Latency {
	if len(samples) == 0 {
		return Latency{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	ms := func(sec float64) float64 { return sec * 1000 }
	return Latency{
		Samples: len(sorted),
		MeanMs:  ms(stat.Mean(sorted, nil)),
		P50Ms:   ms(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		P95Ms:   ms(stat.Quantile(0.95, stat.Empirical, sorted, nil)),
		MaxMs:   ms(sorted[len(sorted)-1]),
	}
}
