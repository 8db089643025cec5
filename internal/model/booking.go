package model

import (
	"strconv"
	"time"
)

// Booking statuses.  Only the pending -> confirmed transition is driven by
// the payment flow; cancellation is applied by the booking handlers and the
// remaining states exist for parity with the stored enum.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusExpired   = "expired"
	BookingStatusFailed    = "failed"
)

// Payment sub-record statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Refund statuses for the cancellation sub-record.
const (
	RefundStatusNone      = "none"
	RefundStatusProcessed = "processed"
)

// Ticket is a single seat assignment inside a booking.  Seats are priced
// individually; the booking total is the sum of ticket prices.
//
// Fields:
//  Row    – row label (e.g. "A").
//  Number – seat number within the row.
//  Type   – seat class (e.g. "standard", "premium").
//  Price  – price in major currency units.
type Ticket struct {
	Row    string  `json:"row"`
	Number uint32  `json:"number"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
}

// Payment is the gateway sub-state nested in a booking.  The razorpay_*
// fields mirror what the gateway hands back during checkout; TransactionID
// is the id recorded as the authoritative payment reference.
type Payment struct {
	Status            string     `json:"status"`
	RazorpayOrderID   string     `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string     `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string     `json:"razorpay_signature,omitempty"`
	TransactionID     string     `json:"transaction_id,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
}

// Cancellation tracks whether a booking was cancelled and how far the
// refund got.  RefundAmount is precomputed at cancellation time and may be
// overridden when the refund is issued.
type Cancellation struct {
	IsCancelled         bool    `json:"is_cancelled"`
	RefundStatus        string  `json:"refund_status"`
	RefundAmount        float64 `json:"refund_amount"`
	RefundTransactionID string  `json:"refund_transaction_id,omitempty"`
}

// NotificationState is an idempotency/audit marker for the confirmation
// notification.  It records that a dispatch was attempted, not that the
// message was delivered.
type NotificationState struct {
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// Booking is the central entity of the payment flow.  It is created in
// pending state by the booking-placement handler and mutated in place by
// the order, confirmation, webhook and refund paths.
//
// Fields:
//  ID            – UUID string, stable across the durable and in-memory stores.
//  BookingNumber – human-readable reference, used as the gateway receipt.
//  UserID        – owner of the booking.
//  Status        – booking status enum (see constants above).
//  MovieTitle    – movie being booked.
//  TheaterName   – theater where the show runs.
//  ShowTime      – show start time in UTC.
//  TotalAmount   – total price in major currency units.
//  Tickets       – ordered seat assignments.
//  Payment       – nested gateway payment state.
//  Cancellation  – nested cancellation/refund state.
//  Notifications – confirmation-notification audit marker.
//  QRPayload     – ticket artifact generated at confirmation time.
type Booking struct {
	ID            string            `json:"id"`
	BookingNumber string            `json:"booking_number"`
	UserID        uint64            `json:"user_id"`
	Status        string            `json:"status"`
	MovieTitle    string            `json:"movie_title"`
	TheaterName   string            `json:"theater_name"`
	ShowTime      time.Time         `json:"show_time"`
	TotalAmount   float64           `json:"total_amount"`
	Tickets       []Ticket          `json:"tickets"`
	Payment       Payment           `json:"payment"`
	Cancellation  Cancellation      `json:"cancellation"`
	Notifications NotificationState `json:"notifications"`
	QRPayload     string            `json:"qr_payload,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SeatLabels returns the human-readable seat labels (row + number) in
// ticket order, e.g. ["A1", "A2"].  Used for the QR payload and the
// confirmation notification.
func (b *Booking) SeatLabels() []string {
	labels := make([]string, 0, len(b.Tickets))
	for _, t := range b.Tickets {
		labels = append(labels, t.Row+strconv.FormatUint(uint64(t.Number), 10))
	}
	return labels
}
