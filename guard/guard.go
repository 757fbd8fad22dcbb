package guard

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

// DefaultCallTimeout caps a tool call when the configuration leaves the
// knob unset.
const DefaultCallTimeout = 30 * time.Second

// Config sizes the guard. Zero values disable the corresponding check,
// except CallTimeout which always applies.
type Config struct {
	// CallTimeout is the hard deadline for one operation.
	CallTimeout time.Duration

	// MaxConcurrent caps in-flight operations. Zero leaves concurrency
	// uncapped.
	MaxConcurrent int

	// RatePerSecond refills the admission bucket. Zero disables rate
	// limiting.
	RatePerSecond float64

	// Burst is the bucket capacity. Zero derives it from RatePerSecond,
	// never below one token.
	Burst int
}

// Guard admits tool calls into the store. Admission is reject-only: a call
// that cannot run right now fails immediately with a sentinel error rather
// than queueing, so a slow store never accumulates a backlog of blocked
// handlers behind it.
type Guard struct {
	timeout time.Duration
	slots   chan struct{}

	mu         sync.Mutex
	rate       float64
	burst      float64
	tokens     float64
	lastRefill time.Time
	throttled  int64
	rejected   int64
}

// New builds a guard from cfg.
func New(cfg Config) *Guard {
	g := &Guard{timeout: cfg.CallTimeout}
	if g.timeout <= 0 {
		g.timeout = DefaultCallTimeout
	}
	if cfg.MaxConcurrent > 0 {
		g.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	if cfg.RatePerSecond > 0 {
		g.rate = cfg.RatePerSecond
		g.burst = float64(cfg.Burst)
		if g.burst < 1 {
			g.burst = math.Max(1, math.Ceil(cfg.RatePerSecond))
		}
		g.tokens = g.burst
		g.lastRefill = time.Now()
	}
	return g
}

// Execute admits op and runs it under the call deadline. Checks run
// cheapest first: token bucket, then concurrency cap, then the deadline,
// so ErrRateLimited and ErrBusy surface before op ever starts.
//
// The concurrency slot is held until op returns, even when Execute has
// already given up on it: an operation that ignores its deadline keeps
// counting against the cap for as long as it runs.
func (g *Guard) Execute(ctx context.Context, op func(context.Context) error) error {
	if g.rate > 0 && !g.admit() {
		return ErrRateLimited
	}

	release := func() {}
	if g.slots != nil {
		select {
		case g.slots <- struct{}{}:
			release = func() { <-g.slots }
		default:
			g.mu.Lock()
			g.rejected++
			g.mu.Unlock()
			return ErrBusy
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer release()
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// admit takes one token, refilling the bucket on the way in.
func (g *Guard) admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	g.tokens = math.Min(g.burst, g.tokens+now.Sub(g.lastRefill).Seconds()*g.rate)
	g.lastRefill = now

	if g.tokens < 1 {
		g.throttled++
		return false
	}
	g.tokens--
	return true
}

// Stats is a point-in-time view of the guard's counters.
type Stats struct {
	InFlight      int
	MaxConcurrent int
	Throttled     int64
	Rejected      int64
}

// Stats reports in-flight occupancy and rejection counters.
func (g *Guard) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Stats{Throttled: g.throttled, Rejected: g.rejected}
	if g.slots != nil {
		s.InFlight = len(g.slots)
		s.MaxConcurrent = cap(g.slots)
	}
	return s
}
