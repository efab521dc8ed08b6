package erpauth

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispops/erpauth/transport"
)

// WithRequestID attaches the X-Request-ID sent on every backend call made
// under ctx. The same ID is stamped on audit events and log entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return transport.WithRequestID(ctx, id)
}

// RequestIDFromContext returns the request ID attached to ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return transport.RequestIDFromContext(ctx)
}

// withRequestID makes sure one ID spans an Engine operation.
func withRequestID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id, ok := transport.RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return transport.WithRequestID(ctx, id), id
}
