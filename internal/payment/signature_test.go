package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	cases := []struct {
		secret  string
		message string
	}{
		{"key_secret", "order_abc|pay_xyz"},
		{"", "empty secret still verifies"},
		{"whsec_123", `{"event":"payment.captured"}`},
		{"s", ""},
	}
	for _, tc := range cases {
		sig := sign(tc.secret, []byte(tc.message))
		assert.True(t, VerifySignature(tc.secret, []byte(tc.message), sig),
			"secret=%q message=%q", tc.secret, tc.message)
	}
}

func TestVerifySignature_RejectsMutations(t *testing.T) {
	secret := "key_secret"
	message := []byte("order_abc|pay_xyz")
	sig := sign(secret, message)

	// Flipping any single hex character must fail verification.
	for i := 0; i < len(sig); i++ {
		mutated := []byte(sig)
		if mutated[i] == 'a' {
			mutated[i] = 'b'
		} else {
			mutated[i] = 'a'
		}
		assert.False(t, VerifySignature(secret, message, string(mutated)), "position %d", i)
	}
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	message := []byte("order_abc|pay_xyz")
	sig := sign("right", message)
	assert.False(t, VerifySignature("wrong", message, sig))
}

func TestVerifySignature_TruncatedSignature(t *testing.T) {
	message := []byte("order_abc|pay_xyz")
	sig := sign("secret", message)
	assert.False(t, VerifySignature("secret", message, sig[:len(sig)-1]))
	assert.False(t, VerifySignature("secret", message, ""))
}

func TestCheckoutMessage(t *testing.T) {
	msg := CheckoutMessage("order_abc", "pay_xyz")
	require.Equal(t, "order_abc|pay_xyz", msg)
}
