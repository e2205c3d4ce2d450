package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"todo-manager/backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_SharesInFlightConnect(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	store := repositories.NewStore("fake", nil, nil, nil, nil)

	provider := NewProvider(func(ctx context.Context) (*repositories.Store, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return store, nil
	})

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan *repositories.Store, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := provider.Store(context.Background())
			assert.NoError(t, err)
			results <- s
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for s := range results {
		assert.Same(t, store, s)
	}

	again, err := provider.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, store, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProvider_RetriesAfterFailure(t *testing.T) {
	var calls int32
	store := repositories.NewStore("fake", nil, nil, nil, nil)

	provider := NewProvider(func(ctx context.Context) (*repositories.Store, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection refused")
		}
		return store, nil
	})

	_, err := provider.Store(context.Background())
	assert.Error(t, err)

	s, err := provider.Store(context.Background())
	require.NoError(t, err)
	assert.Same(t, store, s)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProvider_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	provider := NewProvider(func(ctx context.Context) (*repositories.Store, error) {
		<-release
		return repositories.NewStore("fake", nil, nil, nil, nil), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Store(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProvider_Close(t *testing.T) {
	var closed int32
	store := repositories.NewStore("fake", nil, nil, nil, func(context.Context) error {
		atomic.AddInt32(&closed, 1)
		return nil
	})
	provider := NewProvider(func(context.Context) (*repositories.Store, error) { return store, nil })

	require.NoError(t, provider.Close(context.Background()), "closing before connect is a no-op")

	_, err := provider.Store(context.Background())
	require.NoError(t, err)
	require.NoError(t, provider.Close(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&closed))
}

func TestNewConnector_SQLite(t *testing.T) {
	connect := NewConnector(ConnectConfig{
		URL:            "sqlite://:memory:",
		MaxOpenConns:   5,
		ConnectTimeout: 5 * time.Second,
		AutoMigrate:    true,
	})

	store, err := connect(context.Background())
	require.NoError(t, err)
	defer store.Close(context.Background())

	assert.Equal(t, "sqlite", store.Backend)
	count, err := store.Todos.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	stats := store.Stats()
	assert.Equal(t, "sqlite", stats["backend"])
	assert.Equal(t, 1, stats["max_open_connections"])
}

func TestNewConnector_UnsupportedURL(t *testing.T) {
	connect := NewConnector(ConnectConfig{URL: "redis://localhost"})
	_, err := connect(context.Background())
	assert.Error(t, err)
}
