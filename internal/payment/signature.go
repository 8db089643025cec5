// Package payment wraps the hosted payment gateway: order creation and
// refunds over its REST API, HMAC signature verification for checkout
// callbacks and webhooks, and currency unit conversion.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CheckoutMessage builds the canonical string signed by the gateway for the
// client-confirmation path: "{orderID}|{paymentID}" with a literal pipe.
func CheckoutMessage(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// VerifySignature recomputes an HMAC-SHA-256 over message with the given
// secret and compares the hex digest against signature.  The comparison
// uses hmac.Equal so a mismatch costs the same as a match.  Callers get a
// plain bool; no detail about where the comparison failed is exposed.
func VerifySignature(secret string, message []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
