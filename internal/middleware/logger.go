package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/logging"
)

// RequestLogger tags every request with a correlation id, taken from the
// Correlation-ID header or freshly generated, echoes it back and logs one
// line per request once the handler returns.
func RequestLogger(base logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(logging.CorrelationHeader)
			if id == "" {
				id = logging.NewCorrelationID()
			}
			c.Response().Header().Set(logging.CorrelationHeader, id)

			entry := base.WithField("correlation_id", id)
			ctx := logging.ContextWithCorrelationID(req.Context(), id)
			ctx = logging.ToContext(ctx, entry)
			c.SetRequest(req.WithContext(ctx))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := logrus.Fields{
				"method":  req.Method,
				"path":    c.Path(),
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
			}
			if uid, ok := UserID(c); ok {
				fields["user_id"] = uid
			}
			l := entry.WithFields(fields)
			switch {
			case c.Response().Status >= 500:
				l.WithError(err).Error("request failed")
			default:
				l.Info("request handled")
			}
			return nil
		}
	}
}
