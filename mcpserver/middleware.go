package mcpserver

import (
	"context"
	"time"

	"github.com/jonwraymond/firemcp/guard"
	"github.com/jonwraymond/firemcp/observe"
)

// ObserveMiddleware instruments every tool call: a span per call, call
// metrics, and a scoped log line on completion.
func ObserveMiddleware(obs observe.Observer, metrics observe.Metrics) Middleware {
	tracer := observe.NewTracer(obs.Tracer())

	return func(tool string, next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (any, error) {
			meta := observe.CallMeta{
				Tool:      tool,
				RequestID: RequestIDFromContext(ctx),
			}
			if collection, ok := args["collection"].(string); ok {
				meta.Collection = collection
			}

			ctx, span := tracer.StartSpan(ctx, meta)
			start := time.Now()

			result, err := next(ctx, args)

			elapsed := time.Since(start)
			metrics.RecordCall(ctx, meta, elapsed, err)
			tracer.EndSpan(span, err)

			log := obs.Logger().WithCall(meta)
			if err != nil {
				log.Error(ctx, "tool call failed",
					observe.Field{Key: "duration_ms", Value: elapsed.Milliseconds()},
					observe.Field{Key: "error", Value: err.Error()},
				)
			} else {
				log.Debug(ctx, "tool call completed",
					observe.Field{Key: "duration_ms", Value: elapsed.Milliseconds()},
				)
			}

			return result, err
		}
	}
}

// GuardMiddleware runs every tool call through the guard's protections.
func GuardMiddleware(g *guard.Guard) Middleware {
	return func(tool string, next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (any, error) {
			var result any
			err := g.Execute(ctx, func(ctx context.Context) error {
				var innerErr error
				result, innerErr = next(ctx, args)
				return innerErr
			})
			return result, err
		}
	}
}
