package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicehouse/outreach/internal/health"
	"github.com/voicehouse/outreach/internal/pkg/httputil"
)

// ComponentCheck represents the health of a single dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthHandler serves liveness/readiness probes and the pipeline
// health report.
type HealthHandler struct {
	db        *sql.DB
	redis     *redis.Client
	checker   *health.Checker
	startTime time.Time
}

// NewHealthHandler creates a health handler. Redis may be nil.
func NewHealthHandler(db *sql.DB, redisClient *redis.Client, checker *health.Checker) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redisClient,
		checker:   checker,
		startTime: time.Now(),
	}
}

// HandleHealth returns dependency checks plus the pipeline report.
// Always returns 200; the body conveys health. Probes that need a 503
// use /health/ready.
//
//	GET /health
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context())
	report := h.checker.Check(r.Context())

	status := "healthy"
	for _, c := range checks {
		if c.Status == "down" {
			status = "unhealthy"
		}
	}
	if status == "healthy" && report.Status != health.StatusHealthy {
		status = string(report.Status)
	}

	httputil.OK(w, map[string]any{
		"status":   status,
		"uptime":   time.Since(h.startTime).Round(time.Second).String(),
		"checks":   checks,
		"pipeline": report,
	})
}

// HandleLiveness always returns 200 while the process runs.
//
//	GET /health/live
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "alive",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// HandleReadiness returns 200 only when the database is reachable.
//
//	GET /health/ready
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context())

	ready := true
	for name, c := range checks {
		// Redis is optional; only the database gates readiness.
		if name == "database" && c.Status == "down" {
			ready = false
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, map[string]any{"ready": ready, "checks": checks})
}

// HandleReport returns the pipeline health report on its own.
//
//	GET /api/reports/health
func (h *HealthHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.checker.Check(r.Context()))
}

func (h *HealthHandler) runChecks(ctx context.Context) map[string]ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	checks := make(map[string]ComponentCheck, 2)
	checks["database"] = h.checkDB(ctx)
	checks["redis"] = h.checkRedis(ctx)
	return checks
}

func (h *HealthHandler) checkDB(ctx context.Context) ComponentCheck {
	if h.db == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentCheck {
	if h.redis == nil {
		return ComponentCheck{Status: "not_configured"}
	}
	start := time.Now()
	if err := h.redis.Ping(ctx).Err(); err != nil {
		return ComponentCheck{Status: "down", Message: err.Error()}
	}
	return ComponentCheck{Status: "up", Latency: time.Since(start).String()}
}
