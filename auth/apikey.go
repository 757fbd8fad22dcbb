package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

// DefaultAPIKeyHeader is the header checked for API keys.
const DefaultAPIKeyHeader = "X-API-Key"

// APIKeyAuthenticator validates requests against a static set of keys.
// Keys are stored as SHA-256 hashes so a process dump never reveals them.
type APIKeyAuthenticator struct {
	header string
	hashes map[string]struct{}
}

// NewAPIKeyAuthenticator creates an authenticator for the given plaintext
// keys. header may be empty to use DefaultAPIKeyHeader.
func NewAPIKeyAuthenticator(header string, keys []string) *APIKeyAuthenticator {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	hashes := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		hashes[HashAPIKey(k)] = struct{}{}
	}
	return &APIKeyAuthenticator{header: header, hashes: hashes}
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string {
	return "api_key"
}

// Supports returns true if the request carries the API key header.
func (a *APIKeyAuthenticator) Supports(r *http.Request) bool {
	return r.Header.Get(a.header) != ""
}

// Authenticate validates the API key.
func (a *APIKeyAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	key := strings.TrimSpace(r.Header.Get(a.header))
	if key == "" {
		return nil, ErrMissingCredentials
	}

	hash := HashAPIKey(key)
	for stored := range a.hashes {
		if ConstantTimeCompare(hash, stored) {
			return &Identity{
				Principal: "api-key:" + hash[:8],
				Method:    MethodAPIKey,
			}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// HashAPIKey hashes an API key using SHA-256 for storage.
func HashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// ConstantTimeCompare performs constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Ensure APIKeyAuthenticator implements Authenticator
var _ Authenticator = (*APIKeyAuthenticator)(nil)
