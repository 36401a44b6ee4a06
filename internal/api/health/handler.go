package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"tachi/internal/agents"
	"tachi/pkg/logger"
)

// Handler provides health check endpoints.
type Handler struct {
	log         *logger.Logger
	postgres    *sqlx.DB      // nil when the memory store is used
	redis       *redis.Client // nil when rate limiting is in-process
	crew        agents.Crew
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health check handler. postgres and redis may be nil when the
// corresponding backend is not configured; they are then skipped.
func New(log *logger.Logger, postgres *sqlx.DB, rdb *redis.Client, crew agents.Crew, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		postgres:    postgres,
		redis:       rdb,
		crew:        crew,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Status is the overall health report.
type Status struct {
	Status    string                     `json:"status"` // "healthy" or "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
	Agents    []AgentInfo                `json:"agents"`
}

// ComponentHealth is the health of a single backend.
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// AgentInfo describes one ready crew member.
type AgentInfo struct {
	Type     string `json:"type"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// HandleLiveness returns 200 OK while the process runs.
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness checks the configured backends and reports 503 when any
// fails, for load balancer and Kubernetes probes.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, 5*time.Second)
}

// HandleHealth returns the detailed health status, including the agent
// roster with resolved provider and model bindings.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, 10*time.Second)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := make(map[string]ComponentHealth)
	healthy := true

	if h.postgres != nil {
		c := h.checkPostgres(ctx)
		checks["postgres"] = c
		healthy = healthy && c.Status == "healthy"
	}
	if h.redis != nil {
		c := h.checkRedis(ctx)
		checks["redis"] = c
		healthy = healthy && c.Status == "healthy"
	}

	status := Status{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
		Agents:    h.agentInfo(),
	}

	code := http.StatusOK
	if !healthy {
		status.Status = "unhealthy"
		code = http.StatusServiceUnavailable
		h.log.Warn("Health check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) agentInfo() []AgentInfo {
	out := make([]AgentInfo, 0, len(h.crew))
	for _, at := range agents.AllAgentTypes() {
		agent, err := h.crew.Get(at)
		if err != nil {
			continue
		}
		out = append(out, AgentInfo{
			Type:     string(at),
			Provider: string(agent.ProviderName()),
			Model:    agent.Model(),
		})
	}
	return out
}

func (h *Handler) checkPostgres(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.postgres.PingContext(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(start).String()}
}

func (h *Handler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{Status: "healthy", ResponseTime: time.Since(start).String()}
}
