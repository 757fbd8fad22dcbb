// Package tools implements the document tool handlers: CRUD, queries,
// transactions, batch writes, TTL fields, and cache introspection.
//
// Handlers sit between the MCP transport and the store. The read path
// consults the document cache and collapses concurrent misses for the same
// document into one store read; write paths convert typed fields to native
// store values and invalidate the cache only after the write completes.
package tools
