// Package observe provides observability primitives for the document tool
// server: OpenTelemetry tracing and metrics plus a structured JSON logger.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The server wires the observer into its middleware
// chain and registers cache gauges against the document cache at startup.
package observe
