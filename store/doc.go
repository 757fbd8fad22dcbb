// Package store defines the document store boundary: collections of
// documents keyed by identifier, with typed write operations, queries,
// transactions and atomic batches.
//
// The package ships an in-memory implementation used by tests and local
// runs; the fstore package adapts the managed Firestore service to the same
// contract. Document data is carried as map[string]any and may contain the
// store's native value types (time.Time, *latlng.LatLng,
// *firestore.DocumentRef); normalization happens above this layer.
package store
