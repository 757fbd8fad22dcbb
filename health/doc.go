// Package health exposes liveness and readiness probes for the document tool
// server. Registered checkers cover the backing document store and the
// in-process document cache; the aggregator combines them and the HTTP
// handlers serve /healthz, /readyz and /health on the server mux.
package health
