// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/config"
	"github.com/iliyamo/studio-booking/internal/handler"
	"github.com/iliyamo/studio-booking/internal/middleware"
)

// Deps carries everything the routes need.  Redis may be nil, in which
// case the response cache is off and rate limiting is per instance.
type Deps struct {
	Log       *zap.Logger
	Redis     *redis.Client
	JWTSecret string
	JWTIssuer string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Ready     handler.Pinger
	Public    *handler.PublicHandler
	Bookings  *handler.BookingHandler
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.Ready)
	RegisterPublic(e, d.Public, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	RegisterBooking(e, d.Bookings, d.JWTSecret, d.JWTIssuer,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log), d.Log)
	return e
}

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, ready handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(ready))
}

// RegisterPublic registers the unauthenticated catalog routes behind the
// response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/sessions", p.ListSessions)
	g.GET("/instructors", p.ListInstructors)
}

// RegisterBooking registers the routes that need a verified identity.
// Only booking creation is rate limited.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, secret, issuer string, limit echo.MiddlewareFunc, log *zap.Logger) {
	g := e.Group("/v1", middleware.JWTAuth(secret, issuer, log))
	g.POST("/bookings", h.Create, limit)
	g.GET("/me/bookings", h.ListMine)
	g.GET("/me/waitlist", h.ListMyWaitlist)
}
