package tenantctx

import "context"

type contextKey struct{}

// RequestContext carries the resolved tenant and acting user for a request.
type RequestContext struct {
	TenantID int64
	Actor    string
}

func WithRequest(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

func FromContext(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}

func TenantID(ctx context.Context) int64 {
	rc, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return rc.TenantID
}

func Actor(ctx context.Context) string {
	rc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return rc.Actor
}
