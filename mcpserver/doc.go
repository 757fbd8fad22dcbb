// Package mcpserver speaks Model Context Protocol JSON-RPC 2.0 over stdio,
// streamable HTTP, and SSE. It owns the tool table: handlers register with
// their schema, middleware wraps every tools/call, and errors map onto the
// protocol's error codes.
package mcpserver
