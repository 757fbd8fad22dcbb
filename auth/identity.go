package auth

import "time"

// Method indicates how authentication was performed.
type Method string

const (
	MethodNone   Method = "none"
	MethodJWT    Method = "jwt"
	MethodAPIKey Method = "api_key"
)

// Identity represents an authenticated caller.
type Identity struct {
	// Principal is the unique identifier (key ID or JWT subject).
	Principal string

	// Method indicates how authentication was performed.
	Method Method

	// Claims contains the raw claims from the token, if any.
	Claims map[string]any

	// ExpiresAt is when this identity expires (zero = never).
	ExpiresAt time.Time
}

// IsExpired reports whether the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}
