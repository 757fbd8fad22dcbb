package store

import (
	"context"
	"time"
)

// Document is a point-in-time read of a stored document.
type Document struct {
	Collection string
	ID         string
	Path       string // store-relative: collection path + "/" + ID
	Data       map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// Filter is a single query predicate. Op is one of the comparison operators
// accepted by the backing service: ==, !=, <, <=, >, >=, array-contains,
// array-contains-any, in, not-in.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Order is a single sort clause.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a structured read over one collection. Group selects a
// collection-group query: every collection whose final path segment equals
// Collection, at any nesting depth.
type Query struct {
	Collection string
	Group      bool
	Filters    []Filter
	Orders     []Order
	Limit      int
}

// TransformKind selects a server-side field transform.
type TransformKind int

const (
	TransformNone TransformKind = iota
	TransformServerTimestamp
	TransformIncrement
	TransformArrayUnion
	TransformArrayRemove
	TransformDelete
)

// FieldUpdate sets, transforms or deletes a single field. Field uses
// dot-separated paths for nested fields. Value carries the literal value
// for TransformNone, the delta for TransformIncrement, and the element
// list ([]any) for the array transforms.
type FieldUpdate struct {
	Field     string
	Value     any
	Transform TransformKind
}

// WriteKind selects a batched write's operation.
type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteSet
	WriteUpdate
	WriteDelete
)

// Write is one operation in an atomic batch.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]any // WriteCreate, WriteSet
	Merge      bool           // WriteSet: merge instead of replace
	Updates    []FieldUpdate  // WriteUpdate
}

// Tx is the operation surface available inside a transaction.
type Tx interface {
	Get(collection, id string) (*Document, error)
	Set(collection, id string, data map[string]any, merge bool) error
	Update(collection, id string, updates []FieldUpdate) error
	Delete(collection, id string) error
}

// Store is the black-box document store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: all operations honor cancellation/deadlines.
// - Errors: failures are categorized via the package sentinels; Get on a
//   missing document returns ErrNotFound, never a nil Document with nil
//   error.
type Store interface {
	// Get reads one document.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Create writes a new document. An empty id requests an auto-generated
	// identifier; the created document is returned either way.
	Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error)

	// Set replaces the document, or merges fields into it when merge is
	// true. The document is created if absent.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error

	// Update applies field updates to an existing document.
	Update(ctx context.Context, collection, id string, updates []FieldUpdate) error

	// Delete removes the document. Deleting an absent document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// Query runs a structured read and returns matching documents.
	Query(ctx context.Context, q Query) ([]Document, error)

	// RunTransaction executes fn atomically. Any error from fn aborts the
	// transaction and is returned.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Batch applies all writes atomically.
	Batch(ctx context.Context, writes []Write) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
