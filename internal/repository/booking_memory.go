package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/movietix/booking-api/internal/model"
)

// MemoryBookingStore keeps bookings in a map guarded by a RWMutex.  It is
// functionally identical to the MySQL store but not crash-durable; it
// backs the demo configuration (BOOKING_STORE=memory).  The single mutex
// doubles as the per-booking serialization point for the conditional
// refund update.
type MemoryBookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
}

// NewMemoryBookingStore returns an empty in-memory store.
func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{bookings: make(map[string]*model.Booking)}
}

// clone copies a booking so callers cannot mutate stored state without
// going through the store.
func clone(b *model.Booking) *model.Booking {
	cp := *b
	cp.Tickets = append([]model.Ticket(nil), b.Tickets...)
	return &cp
}

// Create inserts the booking keyed by its id.
func (s *MemoryBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	s.bookings[b.ID] = clone(b)
	return nil
}

// FindByID returns a copy of the booking or ErrBookingNotFound.
func (s *MemoryBookingStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return clone(b), nil
}

// FindByOrderID scans for the booking carrying the gateway order id.
func (s *MemoryBookingStore) FindByOrderID(_ context.Context, orderID string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.Payment.RazorpayOrderID == orderID {
			return clone(b), nil
		}
	}
	return nil, ErrBookingNotFound
}

// ListByUser returns the user's bookings, newest first.
func (s *MemoryBookingStore) ListByUser(_ context.Context, userID uint64) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// AttachOrder binds the gateway order id once; a second call fails.
func (s *MemoryBookingStore) AttachOrder(_ context.Context, id, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Payment.RazorpayOrderID != "" {
		return ErrOrderAlreadyCreated
	}
	b.Payment.RazorpayOrderID = orderID
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// SaveConfirmation overwrites the confirmation fields from b.
func (s *MemoryBookingStore) SaveConfirmation(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok {
		return ErrBookingNotFound
	}
	cur.Status = b.Status
	cur.Payment = b.Payment
	cur.QRPayload = b.QRPayload
	cur.Notifications = b.Notifications
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel marks the booking cancelled with the computed refund amount.
func (s *MemoryBookingStore) Cancel(_ context.Context, id string, refundAmount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	b.Status = model.BookingStatusCancelled
	b.Cancellation.IsCancelled = true
	b.Cancellation.RefundStatus = model.RefundStatusNone
	b.Cancellation.RefundAmount = refundAmount
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkRefunded records the refund outcome unless one is already recorded.
func (s *MemoryBookingStore) MarkRefunded(_ context.Context, id string, amount float64, refundTxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrBookingNotFound
	}
	if b.Cancellation.RefundStatus == model.RefundStatusProcessed {
		return ErrRefundAlreadyProcessed
	}
	b.Cancellation.RefundStatus = model.RefundStatusProcessed
	b.Cancellation.RefundAmount = amount
	b.Cancellation.RefundTransactionID = refundTxID
	b.UpdatedAt = time.Now().UTC()
	return nil
}
