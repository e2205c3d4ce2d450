package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"todo-manager/backend/internal/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm/logger"
)

// Connector opens a new live store.
type Connector func(ctx context.Context) (*repositories.Store, error)

// Provider lazily establishes one store for the lifetime of the process. Concurrent
// callers arriving before the first connection resolves share the same attempt.
// A failed attempt is not remembered, so the next caller tries again.
type Provider struct {
	connect Connector
	group   singleflight.Group

	mu    sync.RWMutex
	store *repositories.Store
}

func NewProvider(connect Connector) *Provider {
	return &Provider{connect: connect}
}

func (p *Provider) current() *repositories.Store {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store
}

func (p *Provider) Store(ctx context.Context) (*repositories.Store, error) {
	if store := p.current(); store != nil {
		return store, nil
	}

	ch := p.group.DoChan("connect", func() (interface{}, error) {
		if store := p.current(); store != nil {
			return store, nil
		}

		// the attempt is shared, so one caller giving up must not cancel it for the rest
		store, err := p.connect(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.store = store
		p.mu.Unlock()
		return store, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*repositories.Store), nil
	}
}

func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	store := p.store
	p.store = nil
	p.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Close(ctx)
}

type ConnectConfig struct {
	URL             string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	AutoMigrate     bool
	Logger          *logrus.Logger
}

// NewConnector returns a Connector for the backend named by cfg.URL.
func NewConnector(cfg ConnectConfig) Connector {
	return func(ctx context.Context) (*repositories.Store, error) {
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}

		driver, err := DetectDriver(cfg.URL)
		if err != nil {
			return nil, err
		}

		entry := logrus.NewEntry(logrusOrStandard(cfg.Logger)).WithField("driver", driver)
		entry.Info("connecting to database")

		var store *repositories.Store
		switch driver {
		case DriverMongo:
			store, err = connectMongoStore(ctx, cfg)
		default:
			store, err = connectSQLStore(cfg, driver)
		}
		if err != nil {
			entry.WithError(err).Error("database connection failed")
			return nil, err
		}

		entry.Info("database connected")
		return store, nil
	}
}

func connectMongoStore(ctx context.Context, cfg ConnectConfig) (*repositories.Store, error) {
	client, err := ConnectMongo(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	dbName := MongoDatabaseName(cfg.URL, cfg.Name)
	if cfg.AutoMigrate {
		if err := repositories.EnsureMongoIndexes(ctx, client.Database(dbName)); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
	}
	return repositories.NewMongoStore(client, dbName), nil
}

func connectSQLStore(cfg ConnectConfig, driver Driver) (*repositories.Store, error) {
	dsn := cfg.URL
	if driver == DriverPostgres {
		var err error
		if dsn, err = WithDatabaseName(dsn, cfg.Name); err != nil {
			return nil, err
		}
	}

	pool, err := NewDatabasePool(&PoolConfig{
		DSN:             dsn,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		LogLevel:        logger.Warn,
		Logger:          cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	if err := pool.Health(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := repositories.Migrate(pool.DB); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return repositories.NewGormStore(pool.DB).WithStats(pool.Stats), nil
}

func logrusOrStandard(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return logrus.StandardLogger()
	}
	return l
}
