// Package doccache provides a bounded, TTL-based cache for normalized
// documents keyed by collection and document ID.
//
// Eviction is FIFO by insertion order; reads never promote an entry. Expiry
// is detected lazily on access (and opportunistically during Stats), never
// by a background timer. The cache is a latency optimization only: the
// backing store remains the source of truth, and disabling the cache must
// never change observable results.
package doccache
