package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eventify/ticketing/internal/config"
	"github.com/eventify/ticketing/internal/handler"
	"github.com/eventify/ticketing/internal/metrics"
	"github.com/eventify/ticketing/internal/middleware"
	"github.com/eventify/ticketing/internal/model"
)

// Options carries everything New needs to assemble the API.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	RateLimit   config.RateLimitConfig
	Redis       *redis.Client // nil disables the shared limiter and the cache
	Cache       *middleware.ResponseCache
	DB          handler.Pinger // nil skips the database ping in /healthz
	Log         logrus.FieldLogger

	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Bookings *handler.BookingHandler
}

// New builds the echo instance with global middleware and every route.
func New(o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(o.Log))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  o.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Correlation-ID"},
		ExposeHeaders: []string{"Correlation-ID", "X-Cache", "Retry-After"},
	}))
	e.Use(middleware.OptionalJWT(o.JWTSecret))
	e.Use(middleware.NewTokenBucket(o.RateLimit, o.Redis))
	e.HTTPErrorHandler = errorHandler(e)

	RegisterRoutes(e, o.DB)
	api := e.Group("/api")
	RegisterAuth(api, o.Auth, o.JWTSecret)
	RegisterEvents(api, o.Events, o.Cache, o.JWTSecret)
	RegisterBookings(api, o.Bookings, o.JWTSecret)
	return e
}

// RegisterRoutes registers operational endpoints outside /api.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers login, signup, the current-user endpoint and the
// help desk chat.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	g := api.Group("/auth")
	g.POST("/login", a.Login)
	g.POST("/signup", a.Register)
	g.GET("/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	api.POST("/chat", handler.Chat)
}

// RegisterEvents registers the public catalog, cached when Redis is
// available, and the admin event editor.
func RegisterEvents(api *echo.Group, h *handler.EventHandler, cache *middleware.ResponseCache, jwtSecret string) {
	g := api.Group("/events")
	g.GET("", h.List, cache.Middleware())
	g.GET("/:id", h.Get, cache.Middleware())

	admin := g.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
	admin.POST("/add", h.Create)
	admin.PUT("/:id", h.Update)
	admin.DELETE("/:id", h.Delete)
}

// RegisterBookings registers booking routes. Every route needs a token;
// ownership of userId is checked in the handler.
func RegisterBookings(api *echo.Group, h *handler.BookingHandler, jwtSecret string) {
	g := api.Group("/bookings", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	g.POST("/book", h.Book)
	g.GET("/user/:userId", h.ListByUser)

	admin := g.Group("", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/all", h.ListAll)
	admin.GET("/event/:eventId", h.Attendees)
	admin.GET("/verify", h.Verify)
	admin.POST("/:id/check-in", h.CheckIn)
	admin.POST("/admin/broadcast/:eventId", h.Broadcast)
	admin.GET("/admin/stats", h.Stats)
}

// errorHandler renders echo's own errors (404 route, 405, bind failures)
// in the API error body.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := http.StatusText(status)
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		code := model.CodeInternal
		switch status {
		case http.StatusNotFound:
			code = model.CodeNotFound
		case http.StatusUnauthorized:
			code = model.CodeUnauthorized
		case http.StatusForbidden:
			code = model.CodeForbidden
		case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusUnsupportedMediaType:
			code = model.CodeValidation
		}
		if status >= 500 {
			e.Logger.Error(err)
		}
		_ = c.JSON(status, model.ErrorBody{Error: msg, Code: code})
	}
}
