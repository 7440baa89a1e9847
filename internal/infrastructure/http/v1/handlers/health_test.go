package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderledger/internal/infrastructure/storage/postgres"
)

type stubProbe struct{ err error }

func (p stubProbe) Ping(context.Context) error { return p.err }
func (p stubProbe) Stats() postgres.PoolStats { return postgres.PoolStats{MaxConns: 8} }

func readyResponse(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler_Ready(t *testing.T) {
	redisDown := HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}
	redisUp := HealthCheck{Name: "redis", Ping: func(context.Context) error { return nil }}

	t.Run("all healthy", func(t *testing.T) {
		code, body := readyResponse(t, NewHealthHandler(stubProbe{}, "test", redisUp))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "healthy", checks["redis"])
	})

	t.Run("extra check failing", func(t *testing.T) {
		code, body := readyResponse(t, NewHealthHandler(stubProbe{}, "test", redisDown))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "healthy", checks["database"])
		assert.Contains(t, checks["redis"], "connection refused")
	})

	t.Run("database failing", func(t *testing.T) {
		code, body := readyResponse(t, NewHealthHandler(stubProbe{err: errors.New("no route")}, "test"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "error", body["status"])
	})
}
