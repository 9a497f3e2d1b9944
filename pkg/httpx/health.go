package httpx

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database.Database, cache.RedisClient, events.EventBus).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the dependencies probed by the readiness endpoint.
// A nil checker is reported as "disabled" and does not degrade readiness.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
	// Stats, when set, is embedded as-is in the readiness body (pool stats).
	Stats func() any
}

// LivenessResponse is returned by GET /api/health.
type LivenessResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Service   string `json:"service" example:"items-api"`
} // @name LivenessResponse

// ReadinessResponse is returned by GET /api/ready.
type ReadinessResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Redis    string `json:"redis" example:"disabled"`
	EventBus string `json:"event_bus" example:"ok"`
	Pool     any    `json:"pool,omitempty"`
} // @name ReadinessResponse

// LivenessHandler reports that the process is serving. It never touches
// dependencies, so it stays 200 while the database is down.
func LivenessHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		JSON(w, http.StatusOK, LivenessResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Service:   service,
		})
	}
}

// ReadinessHandler probes every configured dependency and answers 503 when
// any of them fails.
func ReadinessHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := ReadinessResponse{Status: "ok"}
		probe := func(c HealthChecker) string {
			if c == nil {
				return "disabled"
			}
			if err := c.Ping(ctx); err != nil {
				resp.Status = "degraded"
				return "unreachable"
			}
			return "ok"
		}

		resp.Database = probe(checks.Database)
		resp.Redis = probe(checks.Redis)
		resp.EventBus = probe(checks.EventBus)
		if checks.Stats != nil {
			resp.Pool = checks.Stats()
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}
