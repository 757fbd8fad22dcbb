package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// Handler executes a single tool call.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Middleware wraps a tool handler. The tool name is passed so a middleware
// can scope its telemetry without parsing arguments.
type Middleware func(tool string, next Handler) Handler

// ServerInfo identifies the server to clients during initialize.
type ServerInfo struct {
	Name    string
	Version string
}

// Server dispatches MCP requests to registered tool handlers.
type Server struct {
	info ServerInfo

	mu         sync.RWMutex
	tools      map[string]registration
	order      []string
	middleware []Middleware
}

type registration struct {
	def     mcp.Tool
	handler Handler
}

// New creates an empty server.
func New(info ServerInfo) *Server {
	return &Server{
		info:  info,
		tools: make(map[string]registration),
	}
}

// Use appends middleware to the chain. Middleware added first runs outermost.
// Must be called before serving begins.
func (s *Server) Use(mw ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middleware = append(s.middleware, mw...)
}

// Register adds a tool to the table.
func (s *Server) Register(def mcp.Tool, handler Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	s.tools[def.Name] = registration{def: def, handler: handler}
	s.order = append(s.order, def.Name)
	return nil
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Request represents an incoming MCP JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents an MCP JSON-RPC response.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type requestIDKey struct{}

// RequestIDFromContext returns the correlation ID assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// HandleRequest processes an MCP request and returns a response.
func (s *Server) HandleRequest(ctx context.Context, req Request) Response {
	ctx = context.WithValue(ctx, requestIDKey{}, uuid.NewString())

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.ID)
	case "tools/list":
		return s.handleToolsList(req.ID)
	case "tools/call":
		return s.handleToolsCall(ctx, req.ID, req.Params)
	default:
		return Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    ErrCodeMethodNotFound,
				Message: fmt.Sprintf("method %s not found", req.Method),
			},
		}
	}
}

func (s *Server) handleInitialize(id any) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    s.info.Name,
				"version": s.info.Version,
			},
		},
	}
}

func (s *Server) handleToolsList(id any) Response {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]map[string]any, 0, len(s.order))
	for _, name := range s.order {
		def := s.tools[name].def
		tools = append(tools, map[string]any{
			"name":        def.Name,
			"description": def.Description,
			"inputSchema": def.InputSchema,
		})
	}

	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  map[string]any{"tools": tools},
	}
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, id any, params json.RawMessage) Response {
	var callParams toolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return Response{
			JSONRPC: "2.0",
			ID:      id,
			Error:   &RPCError{Code: ErrCodeInvalidParams, Message: err.Error()},
		}
	}

	result, err := s.Execute(ctx, callParams.Name, callParams.Arguments)
	if err != nil {
		code := ErrCodeToolExecFailed
		if errors.Is(err, ErrToolNotFound) {
			code = ErrCodeToolNotFound
		}
		return Response{
			JSONRPC: "2.0",
			ID:      id,
			Error:   &RPCError{Code: code, Message: err.Error()},
		}
	}

	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  toolResult(result),
	}
}

// Execute runs a named tool through the middleware chain.
func (s *Server) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	s.mu.RLock()
	reg, ok := s.tools[name]
	middleware := s.middleware
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	handler := reg.handler
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](name, handler)
	}
	if args == nil {
		args = map[string]any{}
	}
	return handler(ctx, args)
}

// toolResult wraps a handler result in the MCP content envelope.
func toolResult(v any) map[string]any {
	text, err := json.Marshal(v)
	if err != nil {
		text = []byte(fmt.Sprintf("%v", v))
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}
}
