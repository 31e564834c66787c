// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsCreated counts tickets issued.
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventify",
		Name:      "bookings_created_total",
		Help:      "The total number of tickets issued",
	})

	// BookingsRejected counts booking attempts refused, by reason.
	BookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "bookings_rejected_total",
			Help:      "The total number of refused booking attempts",
		},
		[]string{"reason"},
	)

	// CheckIns counts scanner check-ins by outcome (ok, already_checked_in).
	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "checkins_total",
			Help:      "The total number of check-in attempts",
		},
		[]string{"outcome"},
	)

	// NotificationsFailed counts events that could not be published.
	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventify",
			Name:      "notifications_failed_total",
			Help:      "The total number of notifications that could not be published",
		},
		[]string{"kind"},
	)

	// RequestDuration observes HTTP latency per route and status.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventify",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Middleware records RequestDuration for every request.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			RequestDuration.
				WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
