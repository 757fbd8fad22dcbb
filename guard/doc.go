// Package guard admits tool calls into the document store: a token bucket,
// a concurrency cap, and a per-call deadline, checked in that order.
// Admission is reject-only; a call that cannot run immediately fails with
// a sentinel error instead of queueing.
//
// The sentinels let the transport layer map rejections onto the right
// JSON-RPC codes.
package guard
