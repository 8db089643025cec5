package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movietix/booking-api/internal/model"
)

func newTestBooking(id string, userID uint64) *model.Booking {
	return &model.Booking{
		ID:            id,
		BookingNumber: "BK-20260831-TEST0001",
		UserID:        userID,
		Status:        model.BookingStatusPending,
		MovieTitle:    "Interstellar",
		TheaterName:   "Galaxy Cinemas",
		ShowTime:      time.Now().UTC().Add(48 * time.Hour),
		TotalAmount:   499.5,
		Tickets: []model.Ticket{
			{Row: "A", Number: 1, Type: "standard", Price: 249.75},
			{Row: "A", Number: 2, Type: "standard", Price: 249.75},
		},
		Payment:      model.Payment{Status: model.PaymentStatusPending},
		Cancellation: model.Cancellation{RefundStatus: model.RefundStatusNone},
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()
	require.NoError(t, s.Create(ctx, newTestBooking("b1", 7)))

	got, err := s.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Interstellar", got.MovieTitle)
	assert.Len(t, got.Tickets, 2)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestMemoryStore_FindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()
	require.NoError(t, s.Create(ctx, newTestBooking("b1", 7)))

	got, err := s.FindByID(ctx, "b1")
	require.NoError(t, err)
	got.Status = model.BookingStatusConfirmed
	got.Tickets[0].Price = 1

	fresh, err := s.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, fresh.Status)
	assert.Equal(t, 249.75, fresh.Tickets[0].Price)
}

func TestMemoryStore_AttachOrderOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()
	require.NoError(t, s.Create(ctx, newTestBooking("b1", 7)))

	require.NoError(t, s.AttachOrder(ctx, "b1", "order_1"))
	assert.ErrorIs(t, s.AttachOrder(ctx, "b1", "order_2"), ErrOrderAlreadyCreated)
	assert.ErrorIs(t, s.AttachOrder(ctx, "nope", "order_3"), ErrBookingNotFound)

	got, err := s.FindByOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)

	_, err = s.FindByOrderID(ctx, "order_2")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestMemoryStore_MarkRefundedSingleWriter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()
	require.NoError(t, s.Create(ctx, newTestBooking("b1", 7)))
	require.NoError(t, s.Cancel(ctx, "b1", 499.5))

	require.NoError(t, s.MarkRefunded(ctx, "b1", 499.5, "rfnd_1"))
	assert.ErrorIs(t, s.MarkRefunded(ctx, "b1", 499.5, "rfnd_2"), ErrRefundAlreadyProcessed)

	got, err := s.FindByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.RefundStatusProcessed, got.Cancellation.RefundStatus)
	// Only the first transaction id is ever recorded.
	assert.Equal(t, "rfnd_1", got.Cancellation.RefundTransactionID)
}

func TestMemoryStore_ListByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryBookingStore()

	first := newTestBooking("b1", 7)
	require.NoError(t, s.Create(ctx, first))
	time.Sleep(2 * time.Millisecond)
	second := newTestBooking("b2", 7)
	require.NoError(t, s.Create(ctx, second))
	require.NoError(t, s.Create(ctx, newTestBooking("other", 8)))

	got, err := s.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b2", got[0].ID)
	assert.Equal(t, "b1", got[1].ID)
}
