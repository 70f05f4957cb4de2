// Package logctx carries the request or event scoped logger through a context.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/shophub/internal/observability"
)

type key struct{}

// With returns ctx carrying logger. A nil logger leaves ctx unchanged.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, key{}, logger)
}

// From returns the logger stored on ctx, or nil.
func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(key{}).(observability.Logger)
	return l
}

// FromOr returns the logger stored on ctx, or fallback.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if l := From(ctx); l != nil {
		return l
	}
	return fallback
}

// Enrich appends fields to the scoped logger (fallback when ctx has none) and stores the result,
// so every later line in the request or event carries them.
func Enrich(ctx context.Context, fallback observability.Logger, fields ...observability.Field) context.Context {
	base := FromOr(ctx, fallback)
	if base == nil {
		base = observability.NopLogger()
	}
	if len(fields) == 0 {
		return With(ctx, base)
	}
	return With(ctx, base.With(fields...))
}
