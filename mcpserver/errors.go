package mcpserver

import "errors"

// Sentinel errors for server operations.
var (
	ErrToolNotFound  = errors.New("mcpserver: tool not found")
	ErrDuplicateTool = errors.New("mcpserver: tool already registered")
)

// JSON-RPC 2.0 error codes plus the MCP server-range extensions.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeToolNotFound   = -32001
	ErrCodeToolExecFailed = -32002
)
