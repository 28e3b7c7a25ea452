package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// Middleware stores logger in the request context, enriched with the
// request id requestID extracts. requestID may be nil.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the request logger, or the default logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return logger
	}
	return Default("unknown")
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogAction records the outcome of one action. Status follows the HTTP
// mapping so 4xx outcomes log at warn and 5xx at error.
func (sl *StructuredLogger) LogAction(ctx context.Context, name string, userID int64, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	fields := NewFields().
		WithAction(name, userID).
		WithHTTPResponse(statusCode, durationMs).
		WithComponent(ComponentActions)

	sl.logger.Logger.Log(ctx, level, "Action handled", fields.ToSlice()...)
}

// LogLedgerEvent records a ledger event handled by a consumer.
func (sl *StructuredLogger) LogLedgerEvent(ctx context.Context, kind string, transactionID, accountID, amountCents int64, txType string) {
	fields := NewFields().
		WithLedger(transactionID, accountID, amountCents, txType).
		WithOperation(OpAppend)
	fields[FieldEventKind] = kind

	sl.logger.InfoContext(ctx, "Ledger event mirrored", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
