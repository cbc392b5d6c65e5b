// Package observability carries per-request logging context through the build path.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/anchorbuilder/internal/logfields"
)

// LogContext is the set of attributes attached to every log line of a build.
type LogContext struct {
	BuildID    string
	Stage      string
	RemoteAddr string
}

type ctxKey struct{}

func update(ctx context.Context, set func(*LogContext)) context.Context {
	lc := GetContext(ctx)
	set(&lc)
	return context.WithValue(ctx, ctxKey{}, lc)
}

func WithBuildID(ctx context.Context, id string) context.Context {
	return update(ctx, func(lc *LogContext) { lc.BuildID = id })
}

// WithStage names the coordinator step (stage, invoke, classify) in progress.
func WithStage(ctx context.Context, stage string) context.Context {
	return update(ctx, func(lc *LogContext) { lc.Stage = stage })
}

func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return update(ctx, func(lc *LogContext) { lc.RemoteAddr = addr })
}

// GetContext returns the LogContext stored in ctx, or the zero value.
func GetContext(ctx context.Context) LogContext {
	lc, _ := ctx.Value(ctxKey{}).(LogContext)
	return lc
}

// Attrs renders the non-empty fields of lc.
func (lc LogContext) Attrs() []slog.Attr {
	var attrs []slog.Attr
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.RemoteAddr != "" {
		attrs = append(attrs, logfields.RemoteAddr(lc.RemoteAddr))
	}
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(GetContext(ctx).Attrs(), attrs...)...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	log(ctx, slog.LevelDebug, msg, attrs)
}
