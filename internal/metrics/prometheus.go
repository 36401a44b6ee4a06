package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Job metrics
	JobsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_jobs_submitted_total",
			Help: "Total number of analysis jobs submitted",
		},
		[]string{"kind"}, // kind: portfolio|stock
	)

	JobsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_jobs_completed_total",
			Help: "Total number of analysis jobs by terminal state",
		},
		[]string{"kind", "state"}, // state: succeeded|failed|timed_out
	)

	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tachi_job_duration_seconds",
			Help:    "Analysis job duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind"},
	)

	JobRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_job_retries_total",
			Help: "Total number of job-level retry attempts",
		},
		[]string{"kind"},
	)

	JobsQueued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tachi_jobs_queued",
			Help: "Jobs waiting for an execution slot",
		},
	)

	JobsRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tachi_jobs_running",
			Help: "Jobs currently executing",
		},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_agent_calls_total",
			Help: "Total number of agent model invocations",
		},
		[]string{"agent", "model", "status"}, // status: ok|error
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tachi_agent_latency_seconds",
			Help:    "Agent execution latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"agent", "model"},
	)

	AgentTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_agent_tokens_total",
			Help: "Total tokens used by agents",
		},
		[]string{"agent", "model", "type"}, // type: input|output
	)

	// Provider metrics
	RateLimitWaits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tachi_rate_limit_wait_seconds",
			Help:    "Time spent waiting on provider rate limiters",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
		[]string{"provider"},
	)

	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tachi_worker_executions_total",
			Help: "Total number of background worker executions",
		},
		[]string{"worker", "status"}, // status: ok|error|panic
	)
)

// Register registers all metrics with the default registry.
func Register() {
	prometheus.MustRegister(
		JobsSubmitted,
		JobsCompleted,
		JobDuration,
		JobRetries,
		JobsQueued,
		JobsRunning,
		AgentCalls,
		AgentLatency,
		AgentTokens,
		RateLimitWaits,
		WorkerExecutions,
	)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
