package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/movietix/booking-api/internal/model"
	"github.com/movietix/booking-api/internal/repository"
	"github.com/movietix/booking-api/internal/utils"
)

// BookingHandler owns booking placement, browsing and cancellation.
// Payment-side mutations live in PaymentHandler; this handler only ever
// creates pending bookings and flips them to cancelled.
type BookingHandler struct {
	Store repository.BookingStore
}

func NewBookingHandler(store repository.BookingStore) *BookingHandler {
	if store == nil {
		panic("nil store passed to NewBookingHandler")
	}
	return &BookingHandler{Store: store}
}

type ticketReq struct {
	Row    string  `json:"row"`
	Number uint32  `json:"number"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
}

type createBookingReq struct {
	MovieTitle  string      `json:"movie_title"`
	TheaterName string      `json:"theater_name"`
	ShowTime    string      `json:"show_time"` // RFC3339
	Tickets     []ticketReq `json:"tickets"`
}

// CreateBooking handles POST /v1/bookings.  It places a pending booking
// owned by the caller with a zero-valued payment sub-record; payment is a
// separate step driven by the payment endpoints.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MovieTitle == "" || req.TheaterName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_title and theater_name are required"})
	}
	showTime, err := time.Parse(time.RFC3339, req.ShowTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_time must be RFC3339"})
	}
	if len(req.Tickets) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one ticket is required"})
	}

	total := 0.0
	tickets := make([]model.Ticket, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		if t.Row == "" || t.Number == 0 || t.Price <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each ticket needs row, number and a positive price"})
		}
		tickets = append(tickets, model.Ticket{Row: t.Row, Number: t.Number, Type: t.Type, Price: t.Price})
		total += t.Price
	}

	now := time.Now().UTC()
	booking := &model.Booking{
		ID:            uuid.NewString(),
		BookingNumber: utils.NewBookingNumber(now),
		UserID:        userID,
		Status:        model.BookingStatusPending,
		MovieTitle:    req.MovieTitle,
		TheaterName:   req.TheaterName,
		ShowTime:      showTime.UTC(),
		TotalAmount:   total,
		Tickets:       tickets,
		Payment:       model.Payment{Status: model.PaymentStatusPending},
		Cancellation:  model.Cancellation{RefundStatus: model.RefundStatusNone},
	}
	if err := h.Store.Create(c.Request().Context(), booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
}

// ListMyBookings handles GET /v1/my-bookings.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Store.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bookings})
}

// GetBooking handles GET /v1/bookings/:id.  Owners and admins may view.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, status, errMsg := h.loadOwned(c, userID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": booking})
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  It marks the
// booking cancelled and records the refund the owner is entitled to: the
// full amount while the show has not started, nothing afterwards.  Refund
// issuance is a separate step (POST /v1/payments/refund).
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	booking, status, errMsg := h.loadOwned(c, userID)
	if errMsg != "" {
		return c.JSON(status, echo.Map{"error": errMsg})
	}
	if booking.Cancellation.IsCancelled {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking already cancelled"})
	}

	refund := 0.0
	if booking.Status == model.BookingStatusConfirmed && booking.ShowTime.After(time.Now().UTC()) {
		refund = booking.TotalAmount
	}
	if err := h.Store.Cancel(c.Request().Context(), booking.ID, refund); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_number": booking.BookingNumber,
		"status":         model.BookingStatusCancelled,
		"refund_amount":  refund,
	})
}

// loadOwned fetches the booking in the :id path parameter and enforces
// that the caller owns it or is an admin.  Returns a non-empty error
// message plus HTTP status when the request must be rejected.
func (h *BookingHandler) loadOwned(c echo.Context, userID uint64) (*model.Booking, int, string) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, http.StatusBadRequest, "invalid booking id"
	}
	booking, err := h.Store.FindByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return nil, http.StatusNotFound, "booking not found"
		}
		return nil, http.StatusInternalServerError, "failed to load booking"
	}
	if booking.UserID != userID && !isAdmin(c) {
		return nil, http.StatusForbidden, "forbidden"
	}
	return booking, http.StatusOK, ""
}
