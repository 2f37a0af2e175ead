// CLAUDE:SUMMARY Endpoint middlewares — request id assignment, call logging, panic recovery.
package kit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces unique string identifiers.
type IDGenerator func() string

// UUIDv7 produces time-sortable RFC 9562 identifiers.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Prefixed prepends prefix to every generated id ("req_", "ext_").
func Prefixed(prefix string, gen IDGenerator) IDGenerator {
	return func() string {
		return prefix + gen()
	}
}

// RequestID assigns a request id to calls that do not carry one yet.
func RequestID(gen IDGenerator) Middleware {
	if gen == nil {
		gen = Prefixed("req_", UUIDv7)
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			if GetRequestID(ctx) == "" {
				ctx = WithRequestID(ctx, gen())
			}
			return next(ctx, req)
		}
	}
}

// Logging logs every call with its duration, request id and tool name.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"tool", GetTool(ctx),
				"request_id", GetRequestID(ctx),
				"transport", GetTransport(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.ErrorContext(ctx, "tool call failed", append(attrs, "error", err)...)
			} else {
				logger.InfoContext(ctx, "tool call ok", attrs...)
			}
			return resp, err
		}
	}
}

// Recovery converts panics in downstream endpoints into errors.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "tool panic recovered",
						"tool", GetTool(ctx),
						"panic", r,
						"stack", string(debug.Stack()))
					resp, err = nil, fmt.Errorf("kit: tool %q panicked: %v", GetTool(ctx), r)
				}
			}()
			return next(ctx, req)
		}
	}
}
