package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareObservesRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/events/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events/1", nil))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(RequestDuration), 1)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(BookingsRejected.WithLabelValues("sold_out"))
	BookingsRejected.WithLabelValues("sold_out").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BookingsRejected.WithLabelValues("sold_out")))
}
