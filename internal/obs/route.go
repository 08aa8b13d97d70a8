package obs

import "context"

// routeKey keys the matched route pattern on a request context.
type routeKey struct{}

// WithRoute records the matched route pattern on the context so that
// metrics and log lines downstream of the router can label by it.
func WithRoute(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routeKey{}, pattern)
}

// Route returns the pattern recorded by WithRoute, or "" when the
// request never matched a route.
func Route(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routeKey{}).(string)
	return v
}
