package domain

import "context"

type requestInfoKey struct{}

// RequestInfo describes how a request was dispatched to a handler.
type RequestInfo struct {
	// OriginalPath is the normalized request path before the remainder rewrite.
	OriginalPath string
	// HandlerID is the resource id of the handler serving the request.
	HandlerID string
}

// WithRequestInfo returns a copy of ctx carrying info.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the dispatch information stored in ctx, if any.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}
