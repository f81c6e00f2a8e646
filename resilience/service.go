package resilience

import "context"

// Service is anything that answers a Req with a Resp, the shape every
// resilience combinator wraps. Req and Resp are left fully generic: a
// Service might be an HTTP client call, a database query, or a downstream
// RPC call; the policies in this package don't care what's inside.
type Service[Req, Resp any] interface {
	Call(ctx context.Context, req Req) (Resp, error)
}

// ServiceFunc adapts a plain function to Service.
type ServiceFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Call invokes f.
func (f ServiceFunc[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	return f(ctx, req)
}

// Layer wraps a Service to produce another Service of the same shape. It is
// the unit the combinators in compose.go operate on: a policy (retry,
// circuit breaker, bulkhead, timeout) expressed as a Layer can be composed
// with other policies without the composition knowing which policy it is.
type Layer[Req, Resp any] func(Service[Req, Resp]) Service[Req, Resp]
