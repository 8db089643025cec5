package payment

import "math"

// ToMinorUnits converts a major-unit amount (rupees) to the gateway's
// minor units (paise).  Rounds half up instead of truncating so fractional
// amounts like 19.995 become 2000, not 1999.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
