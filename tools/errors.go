package tools

import (
	"errors"
	"fmt"
)

// Argument errors. Schema validation happens client-side per the protocol,
// so handlers re-check the arguments they depend on.
var (
	// ErrMissingArgument indicates a required argument was absent.
	ErrMissingArgument = errors.New("tools: missing argument")

	// ErrBadArgument indicates an argument had an unusable shape.
	ErrBadArgument = errors.New("tools: bad argument")
)

func errBadShape(key, want string) error {
	return fmt.Errorf("%w: %s must be an array of %s", ErrBadArgument, key, want)
}
