package health

import (
	"context"
	"time"
)

// Pinger is the slice of the document store the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker reports the reachability of the backing document store.
type StoreChecker struct {
	store   Pinger
	timeout time.Duration
}

// NewStoreChecker creates a store checker. timeout caps a single ping;
// zero means 5 seconds.
func NewStoreChecker(store Pinger, timeout time.Duration) *StoreChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &StoreChecker{store: store, timeout: timeout}
}

// Name returns "store".
func (c *StoreChecker) Name() string {
	return "store"
}

// Check pings the store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("store unreachable", err)
	}
	return Healthy("store reachable").WithDetails(map[string]any{
		"ping_ms": time.Since(start).Milliseconds(),
	})
}

var _ Checker = (*StoreChecker)(nil)
