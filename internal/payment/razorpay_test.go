package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{KeyID: "rzp_test_key", KeySecret: "rzp_test_secret", Currency: "INR"}
}

func TestCreateOrder(t *testing.T) {
	var gotPath, gotUser, gotPass string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(Order{
			ID: "order_test123", Amount: 49950, Currency: "INR",
			Receipt: "BK-20260831-AB12CD34", Status: "created",
		})
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(testConfig(), srv.URL)
	order, err := client.CreateOrder(context.Background(), 49950, "INR",
		"BK-20260831-AB12CD34", map[string]string{"booking_id": "b1"})
	require.NoError(t, err)

	assert.Equal(t, "/orders", gotPath)
	assert.Equal(t, "rzp_test_key", gotUser)
	assert.Equal(t, "rzp_test_secret", gotPass)
	assert.Equal(t, float64(49950), gotBody["amount"])
	assert.Equal(t, "BK-20260831-AB12CD34", gotBody["receipt"])
	assert.Equal(t, "order_test123", order.ID)
	assert.Equal(t, int64(49950), order.Amount)
}

func TestRefundPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_abc/refund", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Refund{
			ID: "rfnd_1", PaymentID: "pay_abc", Amount: 49950, Status: "processed",
		})
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(testConfig(), srv.URL)
	refund, err := client.RefundPayment(context.Background(), "pay_abc", 49950, nil)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", refund.ID)
	assert.Equal(t, "processed", refund.Status)
}

func TestGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount required"}}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(testConfig(), srv.URL)
	_, err := client.CreateOrder(context.Background(), 0, "INR", "BK-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestConfigured(t *testing.T) {
	assert.True(t, testConfig().Configured())
	assert.False(t, Config{KeyID: "only-key"}.Configured())
	assert.False(t, Config{}.Configured())
}
