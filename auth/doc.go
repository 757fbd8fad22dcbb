// Package auth guards the HTTP transport of the document tool server.
//
// It supports static API keys and HMAC-signed JWTs. The stdio transport is
// never authenticated: a stdio client already owns the process. Middleware
// rejects unauthenticated HTTP requests with 401 before any handler runs.
package auth
