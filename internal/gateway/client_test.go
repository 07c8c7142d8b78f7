package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bookline/payflow/internal/config"
	"github.com/bookline/payflow/internal/domain"
	"github.com/bookline/payflow/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) gateway.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gateway.NewHTTPClient(config.GatewayConfig{
		BaseURL:     server.URL,
		ConnTimeout: 5 * time.Second,
	})
}

func TestHTTPClient_CreateIntent(t *testing.T) {
	var gotKey string
	var gotBody gateway.CreateIntentRequest
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/intents", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotKey = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.PaymentIntent{
			ID:           "pi_1",
			ClientSecret: "pi_1_secret",
			AmountCents:  1000,
			Currency:     "USD",
			Status:       domain.IntentRequiresConfirmation,
			ExpiresAt:    time.Now().Add(30 * time.Minute),
		})
	})

	intent, err := client.CreateIntent(context.Background(), gateway.CreateIntentRequest{
		AmountCents: 1000,
		Currency:    "USD",
	}, "key-123")

	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, int64(1000), gotBody.AmountCents)
}

func TestHTTPClient_GetPayment(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/payments/pay_1", r.URL.Path)
		assert.Empty(t, r.Header.Get("Idempotency-Key"))

		json.NewEncoder(w).Encode(domain.PaymentRecord{ID: "pay_1", Status: domain.StatusProcessing})
	})

	rec, err := client.GetPayment(context.Background(), "pay_1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, rec.Status)
}

func TestHTTPClient_DecodesGatewayError(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "card_declined",
			"message": "card was declined",
		})
	})

	_, err := client.ConfirmPayment(context.Background(), gateway.ConfirmPaymentRequest{IntentID: "pi_1"}, "key-1")

	require.Error(t, err)
	gwErr, ok := gateway.IsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "card_declined", gwErr.Code)
	assert.Equal(t, "card was declined", gwErr.Message)
	assert.Equal(t, http.StatusPaymentRequired, gwErr.StatusCode)
}

func TestHTTPClient_DeletePaymentMethodNoContent(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/payment-methods/pm_1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.DeletePaymentMethod(context.Background(), "pm_1"))
}

func TestHTTPClient_GetPaymentMethods(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/customers/cus_1/payment-methods", r.URL.Path)
		json.NewEncoder(w).Encode([]domain.PaymentMethod{
			{ID: "pm_1", Type: domain.MethodCreditCard, Last4: "4242", IsDefault: true},
			{ID: "pm_2", Type: domain.MethodDigitalWallet},
		})
	})

	methods, err := client.GetPaymentMethods(context.Background(), "cus_1")

	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.True(t, methods[0].IsDefault)
}
