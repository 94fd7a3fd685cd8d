package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
)

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	Timestamp        time.Time              `json:"timestamp"`
	TotalRequests    int64                  `json:"total_requests"`
	AverageLatencyMs float64                `json:"average_latency_ms"`
	ErrorRate        float64                `json:"error_rate"`
	TotalRuns        int64                  `json:"total_runs"`
	RunFailureRate   float64                `json:"run_failure_rate"`
	RunLatency       monitoring.Latency     `json:"run_latency"`
	ActiveSessions   int                    `json:"active_sessions"`
	UptimeSeconds    float64                `json:"uptime_seconds"`
	SandboxPool      map[string]interface{} `json:"sandbox_pool,omitempty"`
}

// GetMetricsSummary returns a JSON digest of the Prometheus metrics
func (h *Handlers) GetMetricsSummary(c *gin.Context) {
	summary := MetricsSummary{
		Timestamp:      time.Now(),
		ActiveSessions: h.sessions.Stats().TotalSessions,
	}

	if h.metrics != nil {
		snap := h.metrics.Snapshot()
		summary.TotalRequests = snap.TotalRequests
		summary.TotalRuns = snap.TotalRuns
		summary.UptimeSeconds = snap.UptimeSeconds
		summary.RunLatency = snap.RunLatency
		if snap.RequestCount > 0 {
			summary.AverageLatencyMs = (snap.TotalDuration / float64(snap.RequestCount)) * 1000
			summary.ErrorRate = float64(snap.TotalErrors) / float64(snap.RequestCount)
		}
		if snap.TotalRuns > 0 {
			summary.RunFailureRate = float64(snap.FailedRuns) / float64(snap.TotalRuns)
		}
	}
	if h.pool != nil {
		summary.SandboxPool = h.pool.Stats()
	}

	c.JSON(http.StatusOK, summary)
}
