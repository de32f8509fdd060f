// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating auth info via context

package auth

import (
	"context"
)

// Method names how a request authenticated.
type Method string

const (
	MethodAnonymous Method = "anonymous" // gate disabled
	MethodAPIKey    Method = "api_key"
	MethodJWT       Method = "jwt"
)

// AuthContext holds the identity established by the Gate.
type AuthContext struct {
	ClientID string // JWT subject, API key fingerprint, or "anonymous"
	Method   Method
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}
