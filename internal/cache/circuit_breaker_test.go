package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func failing() error { return fmt.Errorf("operation failed") }

func succeeding() error { return nil }

func newTestBreaker(maxFailures, halfOpen int, timeout time.Duration) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      maxFailures,
		Timeout:          timeout,
		HalfOpenMaxCalls: halfOpen,
	})
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreakerBasicFlow(t *testing.T) {
	cb, _ := newTestBreaker(3, 2, 100*time.Millisecond)

	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected initial state to be Closed, got %v", cb.GetState())
	}

	if err := cb.Execute(succeeding); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected state to remain Closed after success, got %v", cb.GetState())
	}
}

func TestCircuitBreakerFailureTransition(t *testing.T) {
	cb, _ := newTestBreaker(2, 2, 100*time.Millisecond)

	if err := cb.Execute(failing); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected state to be Closed after first failure, got %v", cb.GetState())
	}

	if err := cb.Execute(failing); err == nil {
		t.Error("Expected error, got nil")
	}
	if cb.GetState() != CircuitBreakerOpen {
		t.Errorf("Expected state to be Open after reaching failure threshold, got %v", cb.GetState())
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, 1, time.Second)

	cb.Execute(failing)
	cb.Execute(succeeding)
	cb.Execute(failing)

	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected non-consecutive failures to keep the breaker Closed, got %v", cb.GetState())
	}
}

func TestCircuitBreakerOpenState(t *testing.T) {
	cb, _ := newTestBreaker(1, 2, 100*time.Millisecond)

	cb.Execute(failing)

	err := cb.Execute(func() error {
		t.Error("Operation should not be executed when circuit is open")
		return nil
	})

	if err != ErrCircuitBreakerOpen {
		t.Errorf("Expected ErrCircuitBreakerOpen, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenTransition(t *testing.T) {
	cb, now := newTestBreaker(1, 2, 50*time.Millisecond)

	cb.Execute(failing)
	*now = now.Add(60 * time.Millisecond)

	executed := false
	err := cb.Execute(func() error {
		executed = true
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !executed {
		t.Error("Expected operation to be executed in half-open state")
	}
	if cb.GetState() != CircuitBreakerHalfOpen {
		t.Errorf("Expected HalfOpen after one trial call, got %v", cb.GetState())
	}

	cb.Execute(succeeding)
	if cb.GetState() != CircuitBreakerClosed {
		t.Errorf("Expected Closed after enough trial calls succeed, got %v", cb.GetState())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, now := newTestBreaker(1, 2, 50*time.Millisecond)

	cb.Execute(failing)
	*now = now.Add(60 * time.Millisecond)

	cb.Execute(failing)
	if cb.GetState() != CircuitBreakerOpen {
		t.Errorf("Expected a failed trial call to reopen the breaker, got %v", cb.GetState())
	}

	if err := cb.Execute(succeeding); err != ErrCircuitBreakerOpen {
		t.Errorf("Expected ErrCircuitBreakerOpen right after reopening, got %v", err)
	}
}

func TestCircuitBreakerConcurrency(t *testing.T) {
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          100 * time.Millisecond,
		HalfOpenMaxCalls: 3,
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				cb.Execute(func() error {
					if (id+j)%3 == 0 {
						return fmt.Errorf("failure %d-%d", id, j)
					}
					return nil
				})
			}
		}(i)
	}
	wg.Wait()

	err := cb.Execute(succeeding)
	if err != nil && err != ErrCircuitBreakerOpen {
		t.Errorf("Unexpected error after concurrent operations: %v", err)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cb, _ := newTestBreaker(1, 1, time.Second)
	cb.Execute(failing)

	stats := cb.GetStats()
	if stats["state"] != "open" {
		t.Errorf("Expected state open, got %v", stats["state"])
	}
	if stats["failure_count"] != 1 {
		t.Errorf("Expected failure_count 1, got %v", stats["failure_count"])
	}
}
