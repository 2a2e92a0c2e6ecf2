package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaystackInitialize(t *testing.T) {
	var captured paystackInitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data":    map[string]any{"authorization_url": "https://checkout.paystack.com/xyz"},
		})
	}))
	defer srv.Close()

	p := NewPaystackWithBaseURL("sk_test", srv.URL)
	url, err := p.Initialize(context.Background(), InitRequest{
		AmountMinor: 25000,
		Currency:    "NGN",
		Email:       "ada@groupgate.bot",
		Reference:   "ref-1",
		ChatID:      42,
		Username:    "ada",
		PlanType:    "30 Minutes",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/xyz", url)

	// Paystack already takes minor units; no conversion.
	assert.Equal(t, int64(25000), captured.Amount)
	assert.Equal(t, "ref-1", captured.Reference)
	assert.Equal(t, int64(42), captured.Metadata.TelegramChatID)
	assert.Equal(t, "ref-1", captured.Metadata.PaymentReference)
	assert.Equal(t, "30 Minutes", captured.Metadata.SubscriptionType)
	assert.Equal(t, "ada", captured.Metadata.Username)
}

func TestPaystackInitializeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid amount"})
	}))
	defer srv.Close()

	p := NewPaystackWithBaseURL("sk_test", srv.URL)
	_, err := p.Initialize(context.Background(), InitRequest{AmountMinor: 0, Reference: "ref-1"})
	assert.ErrorIs(t, err, ErrGatewayRejected)
}

func TestPaystackInitializeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewPaystackWithBaseURL("sk_test", srv.URL)
	_, err := p.Initialize(context.Background(), InitRequest{AmountMinor: 25000, Reference: "ref-1"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestPaystackInitializeUnreachable(t *testing.T) {
	p := NewPaystackWithBaseURL("sk_test", "http://127.0.0.1:1")
	_, err := p.Initialize(context.Background(), InitRequest{AmountMinor: 25000, Reference: "ref-1"})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestPaystackVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/ref-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "success", "amount": 25000, "currency": "NGN"},
		})
	}))
	defer srv.Close()

	p := NewPaystackWithBaseURL("sk_test", srv.URL)
	v, err := p.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, v.Confirmed)
	assert.Equal(t, int64(25000), v.AmountMinor)
	assert.Equal(t, "NGN", v.Currency)
}

func TestPaystackVerifyUnconfirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "abandoned", "amount": 25000, "currency": "NGN"},
		})
	}))
	defer srv.Close()

	p := NewPaystackWithBaseURL("sk_test", srv.URL)
	v, err := p.Verify(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.False(t, v.Confirmed)
}
