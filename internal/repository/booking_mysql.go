package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/movietix/booking-api/internal/model"
)

// MySQLBookingStore is the durable BookingStore.  Bookings live in the
// `bookings` table and their seat assignments in `booking_tickets`; both
// are written together when a booking is created.  Timestamps are stored
// in UTC.
type MySQLBookingStore struct {
	db *sql.DB
}

// NewMySQLBookingStore returns a store bound to the given database.
func NewMySQLBookingStore(db *sql.DB) *MySQLBookingStore { return &MySQLBookingStore{db: db} }

// DB exposes the underlying handle for transaction management.
func (s *MySQLBookingStore) DB() *sql.DB { return s.db }

const bookingColumns = `id, booking_number, user_id, status, movie_title, theater_name,
	show_time, total_amount, payment_status, razorpay_order_id, razorpay_payment_id,
	razorpay_signature, transaction_id, paid_at, is_cancelled, refund_status,
	refund_amount, refund_tx_id, notified, notified_at, qr_payload, created_at, updated_at`

// Create inserts the booking and its tickets in a single transaction so a
// failed ticket insert never leaves a half-written booking behind.
func (s *MySQLBookingStore) Create(ctx context.Context, b *model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO bookings
		(id, booking_number, user_id, status, movie_title, theater_name, show_time,
		 total_amount, payment_status, refund_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		b.ID, b.BookingNumber, b.UserID, b.Status, b.MovieTitle, b.TheaterName,
		b.ShowTime, b.TotalAmount, b.Payment.Status, b.Cancellation.RefundStatus,
	); err != nil {
		return err
	}

	if len(b.Tickets) > 0 {
		query := `INSERT INTO booking_tickets (booking_id, row_label, seat_number, seat_type, price) VALUES `
		args := make([]interface{}, 0, len(b.Tickets)*5)
		for i, t := range b.Tickets {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?)"
			args = append(args, b.ID, t.Row, t.Number, t.Type, t.Price)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// FindByID loads a booking and its tickets.
func (s *MySQLBookingStore) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return s.scanWithTickets(ctx, row)
}

// FindByOrderID loads a booking by its attached gateway order id.  The
// webhook path uses this because the provider knows no internal ids.
func (s *MySQLBookingStore) FindByOrderID(ctx context.Context, orderID string) (*model.Booking, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE razorpay_order_id = ?`, orderID)
	return s.scanWithTickets(ctx, row)
}

// ListByUser returns all bookings for a user, newest first.  Tickets are
// loaded per booking; listing volume is small enough that the extra
// queries do not matter.
func (s *MySQLBookingStore) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range out {
		if err := s.loadTickets(ctx, b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AttachOrder binds the gateway order id only while none is present.  The
// WHERE clause makes the binding immutable without a read-modify-write.
func (s *MySQLBookingStore) AttachOrder(ctx context.Context, id, orderID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET razorpay_order_id = ? WHERE id = ? AND razorpay_order_id IS NULL`,
		orderID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing booking from an already-bound order.
		var existing sql.NullString
		err := s.db.QueryRowContext(ctx,
			`SELECT razorpay_order_id FROM bookings WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return ErrOrderAlreadyCreated
	}
	return nil
}

// SaveConfirmation persists the confirmation outcome fields from b.
func (s *MySQLBookingStore) SaveConfirmation(ctx context.Context, b *model.Booking) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_status = ?, razorpay_payment_id = ?,
			razorpay_signature = ?, transaction_id = ?, paid_at = ?, qr_payload = ?,
			notified = ?, notified_at = ?
		 WHERE id = ?`,
		b.Status, b.Payment.Status, b.Payment.RazorpayPaymentID,
		b.Payment.RazorpaySignature, b.Payment.TransactionID, b.Payment.PaidAt,
		b.QRPayload, b.Notifications.Sent, b.Notifications.SentAt, b.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Cancel marks the booking cancelled and stores the refund entitlement.
func (s *MySQLBookingStore) Cancel(ctx context.Context, id string, refundAmount float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, is_cancelled = TRUE, refund_status = ?, refund_amount = ?
		 WHERE id = ?`,
		model.BookingStatusCancelled, model.RefundStatusNone, refundAmount, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkRefunded records the refund conditionally on the pre-read status so
// only one of two concurrent refund requests can ever win.
func (s *MySQLBookingStore) MarkRefunded(ctx context.Context, id string, amount float64, refundTxID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET refund_status = ?, refund_amount = ?, refund_tx_id = ?
		 WHERE id = ? AND refund_status <> ?`,
		model.RefundStatusProcessed, amount, refundTxID, id, model.RefundStatusProcessed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := s.db.QueryRowContext(ctx,
			`SELECT refund_status FROM bookings WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		return ErrRefundAlreadyProcessed
	}
	return nil
}

// requireRow converts a zero-row update into ErrBookingNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking maps one bookings row onto the model, unpacking nullable
// columns into the nested sub-records.
func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		orderID   sql.NullString
		paymentID sql.NullString
		signature sql.NullString
		txID      sql.NullString
		paidAt    sql.NullTime
		refundTx  sql.NullString
		notified  sql.NullBool
		sentAt    sql.NullTime
		qr        sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.UserID, &b.Status, &b.MovieTitle, &b.TheaterName,
		&b.ShowTime, &b.TotalAmount, &b.Payment.Status, &orderID, &paymentID,
		&signature, &txID, &paidAt, &b.Cancellation.IsCancelled, &b.Cancellation.RefundStatus,
		&b.Cancellation.RefundAmount, &refundTx, &notified, &sentAt, &qr,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Payment.RazorpayOrderID = orderID.String
	b.Payment.RazorpayPaymentID = paymentID.String
	b.Payment.RazorpaySignature = signature.String
	b.Payment.TransactionID = txID.String
	if paidAt.Valid {
		t := paidAt.Time
		b.Payment.PaidAt = &t
	}
	b.Cancellation.RefundTransactionID = refundTx.String
	b.Notifications.Sent = notified.Bool
	if sentAt.Valid {
		t := sentAt.Time
		b.Notifications.SentAt = &t
	}
	b.QRPayload = qr.String
	return &b, nil
}

func (s *MySQLBookingStore) scanWithTickets(ctx context.Context, row *sql.Row) (*model.Booking, error) {
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTickets(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *MySQLBookingStore) loadTickets(ctx context.Context, b *model.Booking) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_label, seat_number, seat_type, price FROM booking_tickets WHERE booking_id = ? ORDER BY id`,
		b.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.Row, &t.Number, &t.Type, &t.Price); err != nil {
			return err
		}
		b.Tickets = append(b.Tickets, t)
	}
	return rows.Err()
}
