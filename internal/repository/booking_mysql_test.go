package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movietix/booking-api/internal/model"
)

func TestMySQLStore_AttachOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	mock.ExpectExec("UPDATE bookings SET razorpay_order_id").
		WithArgs("order_1", "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.AttachOrder(context.Background(), "b1", "order_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_AttachOrder_AlreadyBound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	mock.ExpectExec("UPDATE bookings SET razorpay_order_id").
		WithArgs("order_2", "b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT razorpay_order_id FROM bookings").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"razorpay_order_id"}).AddRow("order_1"))

	err = s.AttachOrder(context.Background(), "b1", "order_2")
	assert.ErrorIs(t, err, ErrOrderAlreadyCreated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_MarkRefunded_Conditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	mock.ExpectExec("UPDATE bookings SET refund_status").
		WithArgs(model.RefundStatusProcessed, 499.5, "rfnd_1", "b1", model.RefundStatusProcessed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.MarkRefunded(context.Background(), "b1", 499.5, "rfnd_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_MarkRefunded_Loser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	// The conditional update matched nothing because another writer got
	// there first; the follow-up read distinguishes that from a missing
	// booking.
	mock.ExpectExec("UPDATE bookings SET refund_status").
		WithArgs(model.RefundStatusProcessed, 499.5, "rfnd_2", "b1", model.RefundStatusProcessed).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT refund_status FROM bookings").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"refund_status"}).AddRow(model.RefundStatusProcessed))

	err = s.MarkRefunded(context.Background(), "b1", 499.5, "rfnd_2")
	assert.ErrorIs(t, err, ErrRefundAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	now := time.Now().UTC()
	cols := []string{
		"id", "booking_number", "user_id", "status", "movie_title", "theater_name",
		"show_time", "total_amount", "payment_status", "razorpay_order_id",
		"razorpay_payment_id", "razorpay_signature", "transaction_id", "paid_at",
		"is_cancelled", "refund_status", "refund_amount", "refund_tx_id",
		"notified", "notified_at", "qr_payload", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"b1", "BK-20260831-TEST0001", 7, model.BookingStatusConfirmed,
			"Interstellar", "Galaxy Cinemas", now, 499.5,
			model.PaymentStatusCompleted, "order_1", "pay_1", "sig", "pay_1", now,
			false, model.RefundStatusNone, 0.0, nil, true, now, `{"booking_number":"BK-20260831-TEST0001"}`,
			now, now,
		))
	mock.ExpectQuery("SELECT (.+) FROM booking_tickets").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"row_label", "seat_number", "seat_type", "price"}).
			AddRow("A", 1, "standard", 249.75).
			AddRow("A", 2, "standard", 249.75))

	b, err := s.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "order_1", b.Payment.RazorpayOrderID)
	assert.Equal(t, model.PaymentStatusCompleted, b.Payment.Status)
	require.NotNil(t, b.Payment.PaidAt)
	assert.True(t, b.Notifications.Sent)
	assert.Equal(t, []string{"A1", "A2"}, b.SeatLabels())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLStore_FindByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewMySQLBookingStore(db)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = s.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
