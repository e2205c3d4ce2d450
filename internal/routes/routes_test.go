package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/routes"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, mutate func(cfg *config.Config)) *gin.Engine {
	t.Helper()
	return setupRouterWithCache(t, mutate, nil)
}

func setupRouterWithCache(t *testing.T, mutate func(cfg *config.Config), c cache.Cache) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.Database.URL = "sqlite://:memory:"
	cfg.Database.AutoMigrate = true
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	log, _ := test.NewNullLogger()
	provider := database.NewProvider(database.NewConnector(database.ConnectConfig{
		URL:         cfg.Database.URL,
		AutoMigrate: cfg.Database.AutoMigrate,
		Logger:      log,
	}))
	t.Cleanup(func() { provider.Close(context.Background()) })

	return routes.Setup(routes.Deps{
		Config:  cfg,
		Logger:  log,
		Stores:  provider,
		Cache:   c,
		Monitor: monitoring.NewMonitor(),
	})
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func TestRouter_TodoLifecycle(t *testing.T) {
	r := setupRouter(t, nil)

	w, body := do(t, r, http.MethodPost, "/todos", map[string]interface{}{
		"title":    "Write report",
		"priority": "high",
		"category": "work",
		"tags":     []string{"q4"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	todo := body["todo"].(map[string]interface{})
	id := todo["id"].(string)
	assert.Equal(t, "Write report", todo["title"])
	assert.Equal(t, false, todo["completed"])
	assert.Equal(t, []interface{}{"q4"}, todo["tags"])

	w, body = do(t, r, http.MethodGet, "/todos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["todos"], 1)

	w, body = do(t, r, http.MethodPost, "/todos/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["todo"].(map[string]interface{})["completed"])

	w, body = do(t, r, http.MethodPut, "/todos/"+id, map[string]interface{}{"title": "Write final report"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Write final report", body["todo"].(map[string]interface{})["title"])

	w, body = do(t, r, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["completed"])
	assert.Equal(t, float64(0), stats["highPriority"])

	w, body = do(t, r, http.MethodGet, "/todos?completed=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["todos"])

	w, body = do(t, r, http.MethodDelete, "/todos/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Todo deleted successfully", body["message"])

	w, body = do(t, r, http.MethodGet, "/todos/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", body["error"])
}

func TestRouter_ValidationErrors(t *testing.T) {
	r := setupRouter(t, nil)

	w, body := do(t, r, http.MethodPost, "/todos", map[string]interface{}{"title": "No category", "priority": "low"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing required fields", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/todos", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}

func TestRouter_TodoLimit(t *testing.T) {
	r := setupRouter(t, func(cfg *config.Config) { cfg.App.MaxTodos = 1 })

	input := map[string]interface{}{"title": "one", "priority": "low", "category": "general"}
	w, _ := do(t, r, http.MethodPost, "/todos", input)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := do(t, r, http.MethodPost, "/todos", input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Maximum todos limit (1)")
}

func TestRouter_Categories(t *testing.T) {
	r := setupRouter(t, nil)

	w, body := do(t, r, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["categories"], 4)

	w, body = do(t, r, http.MethodPost, "/categories", map[string]interface{}{"name": "Side Projects", "color": "#123456"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "side-projects", body["category"].(map[string]interface{})["id"])

	w, body = do(t, r, http.MethodGet, "/categories/side-projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Side Projects", body["category"].(map[string]interface{})["name"])

	w, _ = do(t, r, http.MethodGet, "/categories/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_InfoHealthAndFallbacks(t *testing.T) {
	r := setupRouter(t, func(cfg *config.Config) { cfg.App.Name = "Team Todos" })

	w, body := do(t, r, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Team Todos", body["name"])

	w, body = do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "healthy", body["status"])
	assert.Len(t, body["checks"], 2)

	w, body = do(t, r, http.MethodGet, "/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])

	w, body = do(t, r, http.MethodPatch, "/todos", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestRouter_RateLimit(t *testing.T) {
	r := setupRouter(t, func(cfg *config.Config) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RequestsPerMin = 1
		cfg.RateLimit.BurstSize = 1
	})

	w, _ := do(t, r, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, r, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRouter_CachedTodoFollowsDeletesAcrossIDSpellings(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache := cache.NewRedisCache(&cache.CacheConfig{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { redisCache.Close() })
	r := setupRouterWithCache(t, nil, redisCache)

	w, body := do(t, r, http.MethodPost, "/todos", map[string]interface{}{
		"title": "a", "priority": "low", "category": "general",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["todo"].(map[string]interface{})["id"].(string)
	upper := strings.ToUpper(id)

	w, body = do(t, r, http.MethodGet, "/todos/"+upper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, body["todo"].(map[string]interface{})["id"])

	w, body = do(t, r, http.MethodPut, "/todos/"+upper, map[string]interface{}{"title": "b"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = do(t, r, http.MethodGet, "/todos/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b", body["todo"].(map[string]interface{})["title"])

	w, _ = do(t, r, http.MethodDelete, "/todos/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, body = do(t, r, http.MethodGet, "/todos/"+upper, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", body["error"])
}

func TestRouter_MetricsIncludeComponentStats(t *testing.T) {
	r := setupRouter(t, nil)

	w, body := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	components := body["components"].(map[string]interface{})
	dbStats := components["database"].(map[string]interface{})
	assert.Equal(t, "sqlite", dbStats["backend"])
	assert.Equal(t, float64(1), dbStats["max_open_connections"])
	assert.Equal(t, false, components["cache"].(map[string]interface{})["enabled"])
}
