package routes

import (
	"context"
	"net/http"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/handlers"
	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the router is assembled from. Cache and Monitor are optional.
type Deps struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Stores  repositories.StoreSource
	Cache   cache.Cache
	Monitor *monitoring.Monitor
}

func Setup(deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	cacheLayer := deps.Cache
	if cacheLayer == nil {
		cacheLayer = cache.NoopCache{}
	}
	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	todoService := services.NewCachedTodoService(
		services.NewTodoService(deps.Stores, cfg.App.MaxTodos), cacheLayer, cfg.Redis.CacheTTL, log)
	categoryService := services.NewCachedCategoryService(
		services.NewCategoryService(deps.Stores), cacheLayer, cfg.Redis.CacheTTL, log)

	todoHandler := handlers.NewTodoHandler(todoService, log)
	categoryHandler := handlers.NewCategoryHandler(categoryService, log)

	monitor.RegisterHealthCheck("database", func(ctx context.Context) error {
		store, err := deps.Stores.Store(ctx)
		if err != nil {
			return err
		}
		return store.Ping(ctx)
	})
	monitor.RegisterHealthCheck("cache", cacheLayer.Health)

	monitor.RegisterStats("database", func(ctx context.Context) map[string]interface{} {
		store, err := deps.Stores.Store(ctx)
		if err != nil {
			return map[string]interface{}{"error": err.Error()}
		}
		return store.Stats()
	})
	monitor.RegisterStats("cache", func(context.Context) map[string]interface{} {
		return cacheLayer.Stats()
	})

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.RecoveryWithLog(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(monitor.Middleware())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize)
		r.Use(middleware.RateLimit(limiter))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":     cfg.App.Name,
			"maxTodos": cfg.App.MaxTodos,
		})
	})

	r.GET("/health", monitor.HealthHandler())
	r.GET("/health/ready", monitor.ReadinessHandler())
	r.GET("/health/live", monitor.LivenessHandler())
	r.GET("/metrics", monitor.MetricsHandler())

	todos := r.Group("/todos")
	{
		todos.GET("", todoHandler.ListTodos)
		todos.POST("", todoHandler.CreateTodo)
		todos.GET("/:id", todoHandler.GetTodo)
		todos.PUT("/:id", todoHandler.UpdateTodo)
		todos.DELETE("/:id", todoHandler.DeleteTodo)
		todos.POST("/:id/toggle", todoHandler.ToggleTodo)
	}

	categories := r.Group("/categories")
	{
		categories.GET("", categoryHandler.ListCategories)
		categories.POST("", categoryHandler.CreateCategory)
		categories.GET("/:id", categoryHandler.GetCategory)
	}

	r.GET("/stats", todoHandler.GetStats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	return r
}
