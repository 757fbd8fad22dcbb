package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	// Secret is the HMAC signing key (required).
	Secret []byte

	// Issuer is the expected token issuer (iss claim). Empty skips the check.
	Issuer string

	// Audience is the expected token audience (aud claim). Empty skips the check.
	Audience string

	// TokenPrefix is the prefix before the token in the Authorization header.
	// Default: "Bearer "
	TokenPrefix string
}

// JWTAuthenticator validates HMAC-signed bearer tokens.
type JWTAuthenticator struct {
	config JWTConfig
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig) *JWTAuthenticator {
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	return &JWTAuthenticator{config: config}
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Supports returns true if the request carries a bearer token.
func (a *JWTAuthenticator) Supports(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), a.config.TokenPrefix)
}

// Authenticate validates the bearer token.
func (a *JWTAuthenticator) Authenticate(_ context.Context, r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, a.config.TokenPrefix)
	if tokenString == header || strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingCredentials
	}
	tokenString = strings.TrimSpace(tokenString)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return a.config.Secret, nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	if a.config.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != a.config.Issuer {
			return nil, ErrInvalidCredentials
		}
	}
	if a.config.Audience != "" && !containsAudience(claims, a.config.Audience) {
		return nil, ErrInvalidCredentials
	}

	return buildIdentity(claims), nil
}

func containsAudience(claims jwt.MapClaims, target string) bool {
	switch v := claims["aud"].(type) {
	case string:
		return v == target
	case []any:
		for _, a := range v {
			if s, ok := a.(string); ok && s == target {
				return true
			}
		}
	}
	return false
}

func buildIdentity(claims jwt.MapClaims) *Identity {
	identity := &Identity{
		Method: MethodJWT,
		Claims: make(map[string]any, len(claims)),
	}
	for k, v := range claims {
		identity.Claims[k] = v
	}
	if sub, ok := claims["sub"].(string); ok {
		identity.Principal = sub
	}
	if exp, ok := claims["exp"].(float64); ok {
		identity.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return identity
}

// Ensure JWTAuthenticator implements Authenticator
var _ Authenticator = (*JWTAuthenticator)(nil)
