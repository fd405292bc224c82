// Context helpers for carrying a bearer token.
package auth

import "context"

type tokenKey struct{}

// WithToken attaches a bearer token to ctx. The Service prefers it over the
// saved client token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
