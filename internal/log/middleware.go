package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

// LoggerContextKey holds the request scoped *Logger.
const LoggerContextKey ContextKey = "logger"

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one built on slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return newLogger(slog.Default(), "")
}

// ComponentMiddleware tags every record logged below it with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestStarted logs at debug level; the completion line carries the
// interesting fields.
func (l *Logger) RequestStarted(ctx context.Context, r *http.Request, clientIP string) {
	attrs := Attrs{}.Request(r).
		Add(FieldUserAgent, r.UserAgent()).
		Add(FieldReferer, r.Referer()).
		Add(FieldClientIP, clientIP)
	l.DebugContext(ctx, "HTTP request started", attrs.Args()...)
}

// RequestCompleted logs 4xx as warnings and 5xx as errors.
func (l *Logger) RequestCompleted(ctx context.Context, r *http.Request, status int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	attrs := Attrs{}.Request(r).
		Add(FieldStatusCode, status).
		Add(FieldDuration, durationMs).
		Add(FieldSuccess, status < 400).
		Add(FieldClientIP, clientIP)
	l.Log(ctx, level, "HTTP request completed", attrs.Args()...)
}

// ExpenseChanged records one create, update or delete.
func (l *Logger) ExpenseChanged(ctx context.Context, op, id string, amountCents int64, category, sentiment string) {
	attrs := Attrs{}.Expense(id, amountCents, category, sentiment).Add(FieldOperation, op)
	l.InfoContext(ctx, "Expense "+op, attrs.Args()...)
}

// Failed logs err at error level together with op and any extra attrs.
func (l *Logger) Failed(ctx context.Context, msg string, err error, op string, extra Attrs) {
	attrs := append(extra, Attrs{}.Err(err).Add(FieldOperation, op)...)
	l.ErrorContext(ctx, msg, attrs.Args()...)
}
