package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// Notifier delivers a log line to the admin chat.
type Notifier interface {
	SendMessage(msg string)
}

// SetupTelegramHandler wraps an existing logger so records at or above the
// given level are also pushed to the notifier. Delivery is fire-and-forget.
func SetupTelegramHandler(log *slog.Logger, notifier Notifier, level slog.Level) *slog.Logger {
	return slog.New(&telegramHandler{
		base:     log.Handler(),
		notifier: notifier,
		level:    level,
	})
}

type telegramHandler struct {
	base     slog.Handler
	notifier Notifier
	level    slog.Level
}

func (h *telegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *telegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		go h.notifier.SendMessage(fmt.Sprintf("[%s] %s", r.Level, r.Message))
	}
	return h.base.Handle(ctx, r)
}

func (h *telegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &telegramHandler{
		base:     h.base.WithAttrs(attrs),
		notifier: h.notifier,
		level:    h.level,
	}
}

func (h *telegramHandler) WithGroup(name string) slog.Handler {
	return &telegramHandler{
		base:     h.base.WithGroup(name),
		notifier: h.notifier,
		level:    h.level,
	}
}
