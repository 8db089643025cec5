package utils

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movietix/booking-api/internal/model"
)

// NewBookingNumber generates a human-readable booking reference such as
// BK-20260831-1A2B3C4D.  The reference doubles as the payment receipt key
// sent to the gateway, so it must be unique per booking; the UUID suffix
// takes care of that.
func NewBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return "BK-" + now.UTC().Format("20060102") + "-" + suffix
}

// qrPayload is the structure encoded into the ticket QR code by the
// client.  It carries everything the theater entrance needs to validate a
// ticket without a database lookup.
type qrPayload struct {
	BookingNumber string   `json:"booking_number"`
	Movie         string   `json:"movie"`
	Theater       string   `json:"theater"`
	Seats         []string `json:"seats"`
	ShowTime      string   `json:"show_time"`
}

// BuildQRPayload renders the ticket artifact attached to a booking at
// confirmation time.  Rendering the payload into an image is the client's
// job; the server only synthesizes the encoded content.
func BuildQRPayload(b *model.Booking) string {
	p := qrPayload{
		BookingNumber: b.BookingNumber,
		Movie:         b.MovieTitle,
		Theater:       b.TheaterName,
		Seats:         b.SeatLabels(),
		ShowTime:      b.ShowTime.UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(raw)
}
