package repository

import (
	"context"

	"github.com/movietix/booking-api/internal/model"
)

// BookingStore abstracts booking persistence so the payment flow works the
// same against the durable MySQL store and the ephemeral in-memory store
// used for demos.  All mutating methods persist only the fields named in
// their contract; they never recompute booking contents.
type BookingStore interface {
	// Create inserts a new booking.  The caller supplies the id and
	// booking number.
	Create(ctx context.Context, b *model.Booking) error

	// FindByID returns the booking with the given id or ErrBookingNotFound.
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// FindByOrderID locates a booking by the gateway order id attached to
	// it.  Used by the webhook path, which knows no internal identifiers.
	FindByOrderID(ctx context.Context, orderID string) (*model.Booking, error)

	// ListByUser returns all bookings owned by the user, newest first.
	ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error)

	// AttachOrder binds a gateway order id to the booking.  Fails with
	// ErrOrderAlreadyCreated when an order id is already present; the
	// binding is immutable.
	AttachOrder(ctx context.Context, id, orderID string) error

	// SaveConfirmation persists the confirmation outcome: status, the
	// payment sub-record, the QR payload and the notification marker.
	SaveConfirmation(ctx context.Context, b *model.Booking) error

	// Cancel marks the booking cancelled and records the refund amount
	// the owner is entitled to.
	Cancel(ctx context.Context, id string, refundAmount float64) error

	// MarkRefunded records a processed refund if and only if no refund
	// has been recorded yet.  A concurrent loser gets
	// ErrRefundAlreadyProcessed, which closes the double-refund race.
	MarkRefunded(ctx context.Context, id string, amount float64, refundTxID string) error
}
