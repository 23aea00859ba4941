package common

import "context"

type ctxKey string

const principalKey ctxKey = "auth/principal"

// Principal identifies the authenticated user attached to a request.
type Principal struct {
	ID   string
	Role string
}

// WithPrincipal stores the authenticated principal on the provided context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the authenticated principal from the context if present.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return "", false
	}
	return p.ID, true
}
