package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func apiKeyRequest(key string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if key != "" {
		r.Header.Set(DefaultAPIKeyHeader, key)
	}
	return r
}

func TestAPIKeyAuthenticator(t *testing.T) {
	a := NewAPIKeyAuthenticator("", []string{"good-key", "other-key"})

	id, err := a.Authenticate(context.Background(), apiKeyRequest("good-key"))
	if err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if id.Method != MethodAPIKey {
		t.Errorf("Method = %v, want api_key", id.Method)
	}
	if id.Principal == "" {
		t.Error("Principal empty")
	}

	if _, err := a.Authenticate(context.Background(), apiKeyRequest("bad-key")); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad key err = %v, want ErrInvalidCredentials", err)
	}

	if a.Supports(apiKeyRequest("")) {
		t.Error("Supports true without header")
	}
	if !a.Supports(apiKeyRequest("x")) {
		t.Error("Supports false with header")
	}
}

func TestAPIKeyWhitespaceTrimmed(t *testing.T) {
	a := NewAPIKeyAuthenticator("", []string{"good-key"})
	if _, err := a.Authenticate(context.Background(), apiKeyRequest("  good-key  ")); err != nil {
		t.Errorf("trimmed key rejected: %v", err)
	}
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestJWTAuthenticator(t *testing.T) {
	secret := []byte("test-secret")
	a := NewJWTAuthenticator(JWTConfig{Secret: secret, Issuer: "firemcp"})

	good := signToken(t, secret, jwt.MapClaims{
		"sub": "alice",
		"iss": "firemcp",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	id, err := a.Authenticate(context.Background(), bearerRequest(good))
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if id.Principal != "alice" {
		t.Errorf("Principal = %q, want alice", id.Principal)
	}
	if id.Method != MethodJWT {
		t.Errorf("Method = %v, want jwt", id.Method)
	}

	expired := signToken(t, secret, jwt.MapClaims{
		"sub": "alice",
		"iss": "firemcp",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := a.Authenticate(context.Background(), bearerRequest(expired)); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token err = %v, want ErrTokenExpired", err)
	}

	wrongIss := signToken(t, secret, jwt.MapClaims{
		"sub": "alice",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := a.Authenticate(context.Background(), bearerRequest(wrongIss)); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong issuer err = %v, want ErrInvalidCredentials", err)
	}

	wrongKey := signToken(t, []byte("other-secret"), jwt.MapClaims{"sub": "alice"})
	if _, err := a.Authenticate(context.Background(), bearerRequest(wrongKey)); err == nil {
		t.Error("token with wrong key accepted")
	}

	if _, err := a.Authenticate(context.Background(), bearerRequest("garbage")); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("garbage token err = %v, want ErrTokenMalformed", err)
	}
}

func TestChainOrder(t *testing.T) {
	secret := []byte("s")
	chain := NewChain(
		NewAPIKeyAuthenticator("", []string{"k1"}),
		NewJWTAuthenticator(JWTConfig{Secret: secret}),
	)

	if _, err := chain.Authenticate(context.Background(), apiKeyRequest("k1")); err != nil {
		t.Errorf("api key via chain: %v", err)
	}

	token := signToken(t, secret, jwt.MapClaims{"sub": "bob"})
	if _, err := chain.Authenticate(context.Background(), bearerRequest(token)); err != nil {
		t.Errorf("jwt via chain: %v", err)
	}

	bare := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if _, err := chain.Authenticate(context.Background(), bare); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("no creds err = %v, want ErrMissingCredentials", err)
	}
}

func TestMiddlewareRejectsBeforeHandler(t *testing.T) {
	chain := NewChain(NewAPIKeyAuthenticator("", []string{"k1"}))

	handlerCalled := false
	h := Middleware(chain)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		id, ok := IdentityFromContext(r.Context())
		if !ok || id == nil {
			t.Error("identity missing from handler context")
		}
	}))

	// Unauthenticated request: 401, handler never runs.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, apiKeyRequest("wrong"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if handlerCalled {
		t.Fatal("handler ran for unauthenticated request")
	}

	// Authenticated request passes through.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, apiKeyRequest("k1"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !handlerCalled {
		t.Error("handler did not run for authenticated request")
	}
}

func TestMiddlewareDisabledChain(t *testing.T) {
	h := Middleware(NewChain())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}
