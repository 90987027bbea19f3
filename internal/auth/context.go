// ABOUTME: Request metadata carried through tool handlers via context
// ABOUTME: Provides WithHeaders/HeadersFromContext for the inbound HTTP headers of a call

package auth

import (
	"context"
	"net/http"
)

// headersContextKey is the key type for storing inbound headers in context.Context.
type headersContextKey struct{}

// WithHeaders returns a new context carrying the inbound request headers.
func WithHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, headersContextKey{}, h)
}

// HeadersFromContext retrieves the inbound headers, returning an empty header
// set if none are present.
func HeadersFromContext(ctx context.Context) http.Header {
	h, ok := ctx.Value(headersContextKey{}).(http.Header)
	if !ok || h == nil {
		return http.Header{}
	}
	return h
}
