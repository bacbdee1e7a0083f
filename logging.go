package resume

import (
	"context"
	"log/slog"
)

// HistoryLogEvent describes one history transition, or a side effect of one
// that failed (activity emission, autosave).
type HistoryLogEvent struct {
	Action Action
	Past   int
	Future int
	Err    error
}

// HistoryLogger records history events.
type HistoryLogger interface {
	LogHistory(HistoryLogEvent)
}

// HistoryLoggerFunc adapts a function to HistoryLogger.
type HistoryLoggerFunc func(HistoryLogEvent)

// LogHistory implements HistoryLogger.
func (f HistoryLoggerFunc) LogHistory(event HistoryLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopHistoryLogger struct{}

func (noopHistoryLogger) LogHistory(HistoryLogEvent) {}

// SlogHistoryLogger writes transitions at debug level and failures at warn
// level to logger.
func SlogHistoryLogger(logger *slog.Logger) HistoryLogger {
	if logger == nil {
		return noopHistoryLogger{}
	}
	return HistoryLoggerFunc(func(event HistoryLogEvent) {
		attrs := []slog.Attr{
			slog.String("action", string(event.Action)),
			slog.Int("past", event.Past),
			slog.Int("future", event.Future),
		}
		if event.Err != nil {
			attrs = append(attrs, slog.Any("error", event.Err))
			logger.LogAttrs(context.Background(), slog.LevelWarn, "resume history side effect failed", attrs...)
			return
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, "resume history transition", attrs...)
	})
}
