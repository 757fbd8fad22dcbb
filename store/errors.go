package store

import "errors"

// Categorized failures returned by Store implementations. Callers branch
// with errors.Is; adapters wrap the backend's own error for context.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("store: document not found")

	// ErrAlreadyExists indicates a create targeted an existing document.
	ErrAlreadyExists = errors.New("store: document already exists")

	// ErrInvalidArgument indicates a malformed path, filter or write.
	ErrInvalidArgument = errors.New("store: invalid argument")

	// ErrUnavailable indicates the backing service could not be reached.
	ErrUnavailable = errors.New("store: service unavailable")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")
)
