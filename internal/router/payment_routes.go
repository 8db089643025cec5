package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/movietix/booking-api/internal/config"
	"github.com/movietix/booking-api/internal/handler"
	"github.com/movietix/booking-api/internal/middleware"
)

// RegisterPayment registers the payment-order lifecycle endpoints.  The
// webhook and the public checkout config take no authentication: the
// webhook authenticates through its signature and the config endpoint
// only ever exposes the public key id.  Everything else requires a JWT.
// All payment routes sit behind the Redis token bucket.
func RegisterPayment(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limit := middleware.RateLimit(rlCfg, rdb)

	e.POST("/v1/payments/webhook", h.Webhook, limit)
	e.GET("/v1/payments/config", h.Config, limit)

	g := e.Group(
		"/v1",
		limit,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", handler.RoleAdmin),
	)
	g.POST("/payments/order", h.CreateOrder)
	g.POST("/payments/verify", h.VerifyPayment)
	g.POST("/payments/refund", h.Refund)
	g.GET("/bookings/:id/payment-status", h.PaymentStatus)
}
