// Package logging carries a logrus entry and the request correlation id
// through a context.
package logging

import (
	"context"

	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"
)

// CorrelationHeader is the HTTP header used to propagate correlation ids
// between the client, the server and queued messages.
const CorrelationHeader = "Correlation-ID"

type ctxKey int

const (
	loggerKey ctxKey = iota
	correlationKey
)

// Init configures the standard logger: JSON in production, text with full
// timestamps otherwise.
func Init(production bool, level string) {
	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// ToContext stores a logger in ctx.
func ToContext(ctx context.Context, l logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx or the standard logger.
func FromContext(ctx context.Context) logrus.FieldLogger {
	if l, ok := ctx.Value(loggerKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

// ContextWithCorrelationID stores id in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the id stored in ctx, or a fresh one
// when none is present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok && id != "" {
		return id
	}
	return NewCorrelationID()
}

// NewCorrelationID returns a short random id.
func NewCorrelationID() string { return shortuuid.New() }
