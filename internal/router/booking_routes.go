package router

import (
	"github.com/labstack/echo/v4"

	"github.com/movietix/booking-api/internal/handler"
	"github.com/movietix/booking-api/internal/middleware"
)

// RegisterBooking registers booking placement, browsing and cancellation.
// All routes require a valid JWT; customers and admins are both accepted,
// with per-booking ownership enforced inside the handlers.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", handler.RoleAdmin),
	)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/my-bookings", h.ListMyBookings)
	g.GET("/bookings/:id", h.GetBooking)
	g.POST("/bookings/:id/cancel", h.CancelBooking)
}
