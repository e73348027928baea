// Package router wires handlers and middleware onto an Echo instance for
// each of the three services.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/handler"
	"github.com/iliyamo/storefront/internal/metrics"
	"github.com/iliyamo/storefront/internal/middleware"
)

// New returns an Echo instance with the middleware every service shares and
// the /healthz and /metrics endpoints.  extra runs after request logging,
// in order, for every route.
func New(m *metrics.Collector, reg *prometheus.Registry, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(m))
	e.Use(extra...)

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	return e
}

// RegisterAuth maps the login endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/api/v1/login", a.Login)
}

// RegisterAccounts maps the account endpoints.  Every one of them requires
// an admin token.
func RegisterAccounts(e *echo.Echo, h *handler.AccountHandler, tokens config.TokenConfig) {
	g := e.Group("/api/v1/accounts", middleware.AdminRequired(tokens)...)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterProducts maps the product endpoints.  Reads are public and go
// through cache; writes and analytics require an admin token.
func RegisterProducts(e *echo.Echo, h *handler.ProductHandler, tokens config.TokenConfig, cache *middleware.ResponseCache) {
	admin := middleware.AdminRequired(tokens)
	cached := cache.Middleware()

	g := e.Group("/api/v1/products")
	g.GET("", h.List, cached)
	g.GET("/:id", h.Get, cached)
	g.POST("", h.Create, admin...)
	g.PATCH("/:id", h.Update, admin...)
	g.DELETE("/:id", h.Delete, admin...)
	g.GET("/:id/analytics", h.GetAnalytics, admin...)
}

// RegisterNotifications maps the status page of the notifications service.
func RegisterNotifications(e *echo.Echo) {
	e.GET("/", handler.SubscriberStatus)
}
