package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithCycleID attaches a claim-cycle identifier to the context logger so
// everything running inside a single cycle logs with the same cycle_id.
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	l := FromContext(ctx)
	return WithContext(ctx, l.With("cycle_id", cycleID))
}
