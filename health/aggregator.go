package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultSweepTimeout caps one full probe sweep.
const DefaultSweepTimeout = 10 * time.Second

// ErrCheckTimeout marks a checker that did not answer before the sweep
// deadline.
var ErrCheckTimeout = errors.New("health: check timed out")

// Report is the outcome of one probe sweep.
type Report struct {
	Status Status
	Checks map[string]Result
}

// Aggregator probes a fixed set of checkers and folds their results into
// one status. The server wires the store and cache checkers at startup;
// nothing registers later, so there is no mutation surface.
type Aggregator struct {
	// Timeout caps one sweep. Checkers still stuck when it passes are
	// reported unhealthy.
	Timeout time.Duration

	checkers []Checker
}

// NewAggregator builds an aggregator over the given checkers.
func NewAggregator(checkers ...Checker) *Aggregator {
	return &Aggregator{Timeout: DefaultSweepTimeout, checkers: checkers}
}

// Run probes every checker in parallel and folds the results. A sweep
// always yields one Result per checker, with ErrCheckTimeout standing in
// for answers that never arrived.
func (a *Aggregator) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	checks := make(map[string]Result, len(a.checkers))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range a.checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			r := probe(ctx, c)
			mu.Lock()
			checks[c.Name()] = r
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return Report{Status: fold(checks), Checks: checks}
}

// probe shields the sweep from checkers that ignore their context.
func probe(ctx context.Context, c Checker) Result {
	start := time.Now()
	out := make(chan Result, 1)
	go func() {
		r := c.Check(ctx)
		r.Duration = time.Since(start)
		if r.Timestamp.IsZero() {
			r.Timestamp = start
		}
		out <- r
	}()

	select {
	case r := <-out:
		return r
	case <-ctx.Done():
		r := Unhealthy("no answer before deadline", ErrCheckTimeout)
		r.Duration = time.Since(start)
		return r
	}
}

// fold takes the worst status present. Status values order healthy <
// degraded < unhealthy.
func fold(checks map[string]Result) Status {
	worst := StatusHealthy
	for _, r := range checks {
		if r.Status > worst {
			worst = r.Status
		}
	}
	return worst
}
