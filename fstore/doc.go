// Package fstore adapts the managed Cloud Firestore service to the
// store.Store contract. It owns the client lifecycle, translates gRPC
// status codes into the store package's categorized sentinels, and acts as
// the reference resolver for the value normalizer.
package fstore
