// Package logging configures the process logger and bridges lifecycle
// events into structured log output.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/quillcms/quill/internal/eventbus"
	events "github.com/quillcms/quill/internal/events"
	reqid "github.com/quillcms/quill/internal/reqid"
)

// New builds a production logger at the given level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Attach subscribes logger to the global event bus. The returned
// function removes the subscriptions.
func Attach(logger *zap.Logger) (detach func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			logger.Info("http request",
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
				zap.String("request_id", requestID(ctx)))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ReadFinish) {
			fields := []zap.Field{
				zap.String("collection", e.Collection),
				zap.String("locale", e.Locale),
				zap.Int("depth", e.Depth),
				zap.Bool("draft", e.Draft),
				zap.Int("docs", e.Docs),
				zap.Duration("duration", e.Duration),
				zap.String("request_id", requestID(ctx)),
			}
			if e.ID != nil {
				fields = append(fields, zap.Any("id", e.ID))
			}
			if e.Err != nil {
				logger.Warn("document read failed", append(fields, zap.Error(e.Err))...)
				return
			}
			logger.Debug("document read", fields...)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.PopulateFinish) {
			if e.Err != nil {
				logger.Warn("population failed",
					zap.Int("tasks", e.Tasks),
					zap.Duration("duration", e.Duration),
					zap.Error(e.Err),
					zap.String("request_id", requestID(ctx)))
				return
			}
			logger.Debug("population drained",
				zap.Int("tasks", e.Tasks),
				zap.Duration("duration", e.Duration),
				zap.String("request_id", requestID(ctx)))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func requestID(ctx context.Context) string {
	id, _ := reqid.FromContext(ctx)
	return id
}
