// Package repository defines error types that are reused across multiple
// stores.  These sentinel values allow the handler layer to distinguish
// failure scenarios and map them to specific HTTP statuses without
// leaking storage detail.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking exists for the given id
// or gateway order id.  Handlers translate this into an HTTP 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrForbidden is returned when the caller attempts an operation on a
// booking they do not own.  Handlers translate this into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrOrderAlreadyCreated is returned by AttachOrder when a gateway order
// id is already bound to the booking.  An order id is immutable once
// attached, so re-creation is rejected.
var ErrOrderAlreadyCreated = errors.New("order already created")

// ErrRefundAlreadyProcessed is returned by MarkRefunded when another
// writer recorded a refund first.  At most one refund transaction id is
// ever persisted per booking.
var ErrRefundAlreadyProcessed = errors.New("refund already processed")
