// CLAUDE:SUMMARY Transport-agnostic endpoint type and middleware composition shared by every tool.
// Package kit holds the endpoint abstraction used by MCP tools and the
// context values that middlewares attach to a call.
package kit

import "context"

// Endpoint handles one decoded request.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(next Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first one is the outermost
// wrapper and runs first on the request path.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
