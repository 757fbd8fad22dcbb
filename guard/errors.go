package guard

import "errors"

// Sentinel errors for guard rejections.
var (
	// ErrRateLimited is returned when the admission bucket is empty.
	ErrRateLimited = errors.New("guard: rate limit exceeded")

	// ErrBusy is returned when the concurrency cap is reached.
	ErrBusy = errors.New("guard: too many concurrent calls")

	// ErrTimeout is returned when an operation outlives the call deadline.
	ErrTimeout = errors.New("guard: operation timed out")
)
