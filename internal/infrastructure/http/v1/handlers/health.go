package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/infrastructure/storage/postgres"
)

// DatabaseProbe is the part of the connection pool health checks use.
// Implemented by *postgres.Pool.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthCheck is an extra dependency probed by /health/ready.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      DatabaseProbe
	checks  []HealthCheck
	version string
}

// NewHealthHandler creates a health handler. The database is always checked.
func NewHealthHandler(db DatabaseProbe, version string, extra ...HealthCheck) *HealthHandler {
	return &HealthHandler{db: db, checks: extra, version: version}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /health/ready. Any failing dependency makes it 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := append([]HealthCheck{{Name: "database", Ping: h.db.Ping}}, h.checks...)

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(checks))
	for _, chk := range checks {
		if err := chk.Ping(ctx); err != nil {
			results[chk.Name] = "unhealthy: " + err.Error()
			status, code = "error", http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "healthy"
	}

	c.JSON(code, gin.H{"status": status, "checks": results})
}

// Info handles GET /health/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":      "orderledger",
		"version":  h.version,
		"database": h.db.Stats(),
	})
}
