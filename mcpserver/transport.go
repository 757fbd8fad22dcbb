package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ServeStdio runs the server over stdio. Blocks until stdin closes or the
// context is cancelled. One JSON-RPC message per line.
func ServeStdio(ctx context.Context, s *Server) error {
	return serveLines(ctx, s, os.Stdin, os.Stdout)
}

func serveLines(ctx context.Context, s *Server, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			resp := Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: ErrCodeParseError, Message: err.Error()},
			}
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("encode error response: %w", err)
			}
			continue
		}

		resp := s.HandleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	return nil
}

// HTTPHandler returns an http.Handler for streamable HTTP transport.
// Handles POST requests with JSON-RPC bodies, returns JSON responses.
func HTTPHandler(s *Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var mcpReq Request
		if err := json.NewDecoder(req.Body).Decode(&mcpReq); err != nil {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: ErrCodeParseError, Message: err.Error()},
			})
			return
		}

		resp := s.HandleRequest(req.Context(), mcpReq)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// SSEHandler returns an http.Handler for Server-Sent Events transport.
// Clients POST a request and receive the response as an SSE event.
func SSEHandler(s *Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		var mcpReq Request
		if err := json.NewDecoder(req.Body).Decode(&mcpReq); err != nil {
			writeSSEEvent(w, flusher, "error", Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: ErrCodeParseError, Message: err.Error()},
			})
			return
		}

		resp := s.HandleRequest(req.Context(), mcpReq)
		writeSSEEvent(w, flusher, "message", resp)
	})
}

func writeSSEEvent(w http.ResponseWriter, f http.Flusher, event string, data any) {
	jsonData, _ := json.Marshal(data)
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return
	}
	f.Flush()
}
