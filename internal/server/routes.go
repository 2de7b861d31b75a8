package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(RecordMetrics)
	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	rps, burst := cfg.RateLimitRPS, cfg.RateLimitBurst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	buildLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	}))

	// Solana Actions
	e.GET("/actions.json", h.ActionsJSON, ActionsCORS)
	e.OPTIONS("/actions.json", h.ActionsJSON, ActionsCORS)

	actions := e.Group("/api/actions", ActionsCORS)
	actions.GET("/swap", h.SwapMetadata)
	actions.OPTIONS("/swap", h.SwapMetadata)
	actions.POST("/swap", h.SwapBuild, buildLimiter)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/quote", h.QuotePreview, buildLimiter)

	// Flag admin needs both a store and a key
	if h.Flags != nil && cfg.APIKey != "" {
		flagGroup := v1.Group("/flags", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
			// missing and wrong keys look the same to the caller
			ErrorHandler: func(err error, c echo.Context) error {
				return echo.ErrUnauthorized
			},
		}))
		flagGroup.GET("", h.FlagsList)
		flagGroup.POST("", h.FlagsUpsert)
		flagGroup.GET("/:key", h.FlagsGet)
		flagGroup.PUT("/:key", h.FlagsUpdate)
		flagGroup.DELETE("/:key", h.FlagsDelete)
	}

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
