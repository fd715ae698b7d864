package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxLoggerKey ctxKey = iota
	ctxFieldsKey
)

type ctxFields struct {
	mu     sync.Mutex
	fields []zap.Field
}

// WrapInCtx stores lg in ctx so that NewFromCtx returns it.
func WrapInCtx(ctx context.Context, lg *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, lg)
}

// NewFromCtx returns the logger stored in ctx, or the global logger,
// decorated with any fields attached via CtxWithAttrs.
func NewFromCtx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return globalLogger
	}
	lg, ok := ctx.Value(ctxLoggerKey).(*zap.Logger)
	if !ok || lg == nil {
		lg = globalLogger
	}
	if fields := GetCtxFields(ctx); len(fields) > 0 {
		return lg.With(fields...)
	}
	return lg
}

// CtxWithAttrs returns a child context carrying the parent's fields plus fields.
func CtxWithAttrs(ctx context.Context, fields ...zap.Field) context.Context {
	holder := &ctxFields{fields: WithCtxFields(ctx, fields...)}
	return context.WithValue(ctx, ctxFieldsKey, holder)
}

// SetCtxFields appends fields to the holder already present in ctx.
// It is a no-op when ctx was not created by CtxWithAttrs.
func SetCtxFields(ctx context.Context, fields ...zap.Field) {
	holder, ok := ctx.Value(ctxFieldsKey).(*ctxFields)
	if !ok {
		return
	}
	holder.mu.Lock()
	holder.fields = append(holder.fields, fields...)
	holder.mu.Unlock()
}

func GetCtxFields(ctx context.Context) []zap.Field {
	holder, ok := ctx.Value(ctxFieldsKey).(*ctxFields)
	if !ok {
		return nil
	}
	holder.mu.Lock()
	defer holder.mu.Unlock()
	out := make([]zap.Field, len(holder.fields))
	copy(out, holder.fields)
	return out
}

func WithCtxFields(ctx context.Context, fields ...zap.Field) []zap.Field {
	return append(GetCtxFields(ctx), fields...)
}
