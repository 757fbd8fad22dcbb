package auth

import (
	"context"
	"net/http"
)

// Authenticator validates credentials on an incoming HTTP request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Authenticate returns the categorized sentinel on failure; a nil
//   error means the returned identity is valid.
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Supports returns true if this authenticator can handle the request.
	Supports(r *http.Request) bool

	// Authenticate validates credentials and returns the caller's identity.
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// Chain tries each authenticator in order and uses the first one that
// supports the request. A request no authenticator supports fails with
// ErrMissingCredentials.
type Chain struct {
	authenticators []Authenticator
}

// NewChain creates an authenticator chain.
func NewChain(authenticators ...Authenticator) *Chain {
	return &Chain{authenticators: authenticators}
}

// Authenticate runs the chain.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	for _, a := range c.authenticators {
		if a.Supports(r) {
			return a.Authenticate(ctx, r)
		}
	}
	return nil, ErrMissingCredentials
}

// Enabled reports whether the chain has any authenticators. An empty chain
// means authentication is disabled and all requests pass.
func (c *Chain) Enabled() bool {
	return len(c.authenticators) > 0
}
