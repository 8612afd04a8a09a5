package session

import "context"

type tokenKey struct{}

// WithToken returns a context carrying the session's backend bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token stored on the context, or empty.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// ContextTokenSource reads the bearer token from the request context, so one
// shared REST client serves every signed-in session.
type ContextTokenSource struct{}

func (ContextTokenSource) Token(ctx context.Context) string {
	return TokenFromContext(ctx)
}
