package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"todo-manager/backend/internal/cache"
	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/logger"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func connectConfig(cfg *config.Config, log *logrus.Logger) database.ConnectConfig {
	return database.ConnectConfig{
		URL:             cfg.Database.URL,
		Name:            cfg.Database.Name,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		AutoMigrate:     cfg.Database.AutoMigrate,
		Logger:          log,
	}
}

func newCache(cfg *config.Config, log *logrus.Logger) cache.Cache {
	if !cfg.Redis.Enabled {
		log.Info("redis cache disabled")
		return cache.NoopCache{}
	}

	return cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	driver, err := database.DetectDriver(cfg.Database.URL)
	if err != nil {
		return err
	}

	// The store connects lazily on the first request that needs it.
	provider := database.NewProvider(database.NewConnector(connectConfig(cfg, log)))
	c := newCache(cfg, log)

	router := routes.Setup(routes.Deps{
		Config:  cfg,
		Logger:  log,
		Stores:  provider,
		Cache:   c,
		Monitor: monitoring.NewMonitor(),
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":      srv.Addr,
			"driver":    driver,
			"max_todos": cfg.App.MaxTodos,
			"cache":     cfg.Redis.Enabled,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.WithError(err).Error("server failed")
			closeResources(provider, c, log)
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	closeResources(provider, c, log)

	log.Info("server stopped")
	return err
}

func closeResources(provider *database.Provider, c cache.Cache, log *logrus.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := provider.Close(ctx); err != nil {
		log.WithError(err).Warn("failed to close database")
	}
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("failed to close cache")
	}
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log)

	connect := connectConfig(cfg, log)
	connect.AutoMigrate = true

	provider := database.NewProvider(database.NewConnector(connect))
	defer provider.Close(context.Background())

	store, err := provider.Store(ctx)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.WithField("backend", store.Backend).Info("schema is up to date")
	return nil
}
