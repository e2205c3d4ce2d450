package monitoring

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
)

func setupRouter(m *Monitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/todos/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.GET("/fail", func(c *gin.Context) { c.JSON(http.StatusBadRequest, gin.H{}) })
	r.GET("/health", m.HealthHandler())
	r.GET("/health/ready", m.ReadinessHandler())
	r.GET("/health/live", m.LivenessHandler())
	r.GET("/metrics", m.MetricsHandler())
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestMonitor_Middleware(t *testing.T) {
	m := NewMonitor()
	r := setupRouter(m)

	get(r, "/todos/1")
	get(r, "/todos/2")
	get(r, "/fail")
	get(r, "/nowhere")

	snapshot := m.Snapshot()
	assert.Equal(t, int64(4), snapshot.RequestCount)
	assert.Equal(t, int64(0), snapshot.ActiveRequests)
	assert.Equal(t, int64(2), snapshot.ErrorCount)
	assert.Equal(t, int64(2), snapshot.Endpoints["GET /todos/:id"])
	assert.Equal(t, int64(1), snapshot.Endpoints["GET <unmatched>"])
	assert.Equal(t, int64(2), snapshot.StatusCodes["OK"])

	snapshot.Endpoints["GET /todos/:id"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Endpoints["GET /todos/:id"], "snapshot must be a copy")
}

func TestMonitor_HealthAllPassing(t *testing.T) {
	m := NewMonitor()
	m.RegisterHealthCheck("database", func(context.Context) error { return nil })
	m.RegisterHealthCheck("cache", func(context.Context) error { return nil })
	r := setupRouter(m)

	w := get(r, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string        `json:"status"`
		Checks []HealthCheck `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "cache", body.Checks[0].Name)
	assert.Equal(t, "database", body.Checks[1].Name)

	assert.Equal(t, http.StatusOK, get(r, "/health/ready").Code)
}

func TestMonitor_HealthFailing(t *testing.T) {
	m := NewMonitor()
	m.RegisterHealthCheck("database", func(context.Context) error { return errors.New("connection refused") })
	r := setupRouter(m)

	w := get(r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = get(r, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")

	assert.Equal(t, http.StatusOK, get(r, "/health/live").Code, "liveness ignores dependencies")
}

func TestMonitor_NoChecksIsHealthy(t *testing.T) {
	m := NewMonitor()
	assert.Empty(t, m.RunHealthChecks(context.Background()))
	assert.Equal(t, http.StatusOK, get(setupRouter(m), "/health").Code)
}

func TestMonitor_MetricsHandler(t *testing.T) {
	m := NewMonitor()
	m.RegisterStats("cache", func(context.Context) map[string]interface{} {
		return map[string]interface{}{"hits": 3}
	})
	r := setupRouter(m)
	get(r, "/todos/1")

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "application")
	assert.Contains(t, body, "system")
	components := body["components"].(map[string]interface{})
	assert.Equal(t, float64(3), components["cache"].(map[string]interface{})["hits"])
}
