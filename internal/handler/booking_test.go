package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movietix/booking-api/internal/model"
	"github.com/movietix/booking-api/internal/repository"
)

func TestCreateBooking(t *testing.T) {
	store := repository.NewMemoryBookingStore()
	h := NewBookingHandler(store)

	show := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{
		"movie_title": "Interstellar",
		"theater_name": "Galaxy Cinemas",
		"show_time": %q,
		"tickets": [
			{"row":"B","number":4,"type":"standard","price":250},
			{"row":"B","number":5,"type":"premium","price":249.5}
		]
	}`, show)
	c, rec := newRequest(http.MethodPost, "/v1/bookings", body, 7, "CUSTOMER")
	require.NoError(t, h.CreateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Booking model.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.BookingStatusPending, resp.Booking.Status)
	assert.Equal(t, model.PaymentStatusPending, resp.Booking.Payment.Status)
	assert.Equal(t, 499.5, resp.Booking.TotalAmount)
	assert.Len(t, resp.Booking.Tickets, 2)
	assert.Regexp(t, `^BK-\d{8}-[0-9A-F]{8}$`, resp.Booking.BookingNumber)

	stored, err := store.FindByID(context.Background(), resp.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), stored.UserID)
}

func TestCreateBooking_Validation(t *testing.T) {
	h := NewBookingHandler(repository.NewMemoryBookingStore())
	show := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)

	cases := []struct {
		name string
		body string
	}{
		{"missing movie", fmt.Sprintf(`{"theater_name":"T","show_time":%q,"tickets":[{"row":"A","number":1,"price":100}]}`, show)},
		{"bad show time", `{"movie_title":"M","theater_name":"T","show_time":"tomorrow","tickets":[{"row":"A","number":1,"price":100}]}`},
		{"no tickets", fmt.Sprintf(`{"movie_title":"M","theater_name":"T","show_time":%q,"tickets":[]}`, show)},
		{"zero price ticket", fmt.Sprintf(`{"movie_title":"M","theater_name":"T","show_time":%q,"tickets":[{"row":"A","number":1,"price":0}]}`, show)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newRequest(http.MethodPost, "/v1/bookings", tc.body, 7, "CUSTOMER")
			require.NoError(t, h.CreateBooking(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListMyBookings_OnlyOwn(t *testing.T) {
	store := repository.NewMemoryBookingStore()
	h := NewBookingHandler(store)
	seedBooking(t, store, 7, 100)
	seedBooking(t, store, 7, 200)
	seedBooking(t, store, 8, 300)

	c, rec := newRequest(http.MethodGet, "/v1/my-bookings", "", 7, "CUSTOMER")
	require.NoError(t, h.ListMyBookings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []model.Booking `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	for _, b := range resp.Items {
		assert.Equal(t, uint64(7), b.UserID)
	}
}

func TestGetBooking_Ownership(t *testing.T) {
	store := repository.NewMemoryBookingStore()
	h := NewBookingHandler(store)
	b := seedBooking(t, store, 7, 499.5)

	get := func(userID uint64, role string) *int {
		c, rec := newRequest(http.MethodGet, "/", "", userID, role)
		c.SetParamNames("id")
		c.SetParamValues(b.ID)
		require.NoError(t, h.GetBooking(c))
		return &rec.Code
	}

	assert.Equal(t, http.StatusOK, *get(7, "CUSTOMER"))
	assert.Equal(t, http.StatusForbidden, *get(8, "CUSTOMER"))
	assert.Equal(t, http.StatusOK, *get(99, RoleAdmin))
}

func TestCancelBooking_RefundEntitlement(t *testing.T) {
	store := repository.NewMemoryBookingStore()
	h := NewBookingHandler(store)
	ctx := context.Background()

	cancel := func(id string) (*int, map[string]interface{}) {
		c, rec := newRequest(http.MethodPost, "/", "", 7, "CUSTOMER")
		c.SetParamNames("id")
		c.SetParamValues(id)
		require.NoError(t, h.CancelBooking(c))
		var resp map[string]interface{}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		return &rec.Code, resp
	}

	// Confirmed booking with the show still ahead: full refund entitlement.
	paid := confirmBooking(t, store, 7, 499.5)
	code, resp := cancel(paid.ID)
	require.Equal(t, http.StatusOK, *code)
	assert.Equal(t, 499.5, resp["refund_amount"])
	stored, err := store.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.True(t, stored.Cancellation.IsCancelled)
	assert.Equal(t, 499.5, stored.Cancellation.RefundAmount)

	// Pending booking: cancellable, but nothing was paid so nothing is owed.
	pending := seedBooking(t, store, 7, 250)
	code, resp = cancel(pending.ID)
	require.Equal(t, http.StatusOK, *code)
	assert.Equal(t, float64(0), resp["refund_amount"])

	// Confirmed booking whose show already started: no refund.
	late := confirmBooking(t, store, 7, 300)
	lateStored, err := store.FindByID(ctx, late.ID)
	require.NoError(t, err)
	lateStored.ShowTime = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, lateStored)) // overwrite with past show time
	code, resp = cancel(late.ID)
	require.Equal(t, http.StatusOK, *code)
	assert.Equal(t, float64(0), resp["refund_amount"])

	// Second cancellation is rejected.
	code, _ = cancel(paid.ID)
	assert.Equal(t, http.StatusBadRequest, *code)
}

// confirmBooking moves a seeded booking to confirmed/completed without
// cancelling it, leaving it ready for the cancellation path under test.
func confirmBooking(t *testing.T, store repository.BookingStore, userID uint64, amount float64) *model.Booking {
	t.Helper()
	b := seedBooking(t, store, userID, amount)
	ctx := context.Background()
	require.NoError(t, store.AttachOrder(ctx, b.ID, "order_"+b.ID[:8]))
	now := time.Now().UTC()
	b.Status = model.BookingStatusConfirmed
	b.Payment.Status = model.PaymentStatusCompleted
	b.Payment.RazorpayPaymentID = "pay_" + b.ID[:8]
	b.Payment.TransactionID = b.Payment.RazorpayPaymentID
	b.Payment.PaidAt = &now
	require.NoError(t, store.SaveConfirmation(ctx, b))
	return b
}
