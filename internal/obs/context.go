package obs

import "context"

type patternCtxKey struct{}

// WithRoutePattern stores the matched router template on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, patternCtxKey{}, pattern)
}

// RoutePatternFromContext returns the stored route template, or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	pattern, _ := ctx.Value(patternCtxKey{}).(string)
	return pattern
}
