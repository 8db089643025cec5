// Package queue contains the message payloads exchanged over the broker
// and the background consumer that turns them into notifications.
package queue

// BookingConfirmedEvent is published after a booking reaches confirmed
// state via the client checkout path.  It carries enough information for
// the notification consumer to compose a confirmation message without
// querying the primary store.
type BookingConfirmedEvent struct {
	BookingID     string   `json:"booking_id"`
	BookingNumber string   `json:"booking_number"`
	UserID        uint64   `json:"user_id"`
	UserEmail     string   `json:"user_email"`
	MovieTitle    string   `json:"movie_title"`
	TheaterName   string   `json:"theater_name"`
	ShowTime      string   `json:"show_time"`
	SeatLabels    []string `json:"seats"`
	TotalAmount   float64  `json:"total_amount"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
