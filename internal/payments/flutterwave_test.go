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

func TestFlutterwaveInitialize(t *testing.T) {
	var captured flutterwaveInitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v3/payments", r.URL.Path)
		require.Equal(t, "Bearer flw_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]any{"link": "https://checkout.flutterwave.com/pay/abc"},
		})
	}))
	defer srv.Close()

	f := NewFlutterwaveWithBaseURL("flw_test", srv.URL)
	url, err := f.Initialize(context.Background(), InitRequest{
		AmountMinor: 25000,
		Currency:    "NGN",
		Email:       "chidi@groupgate.bot",
		Reference:   "ref-9",
		ChatID:      99,
		Username:    "chidi",
		PlanType:    "30 Minutes",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/pay/abc", url)

	// 25000 kobo becomes 250.00 naira on the wire.
	assert.Equal(t, "250.00", captured.Amount)
	assert.Equal(t, "ref-9", captured.TxRef)
	assert.Equal(t, "NGN", captured.Currency)
	assert.Equal(t, int64(99), captured.Meta.TelegramChatID)
	assert.Equal(t, "30 Minutes", captured.Meta.SubscriptionType)
}

func TestFlutterwaveInitializeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "Invalid currency"})
	}))
	defer srv.Close()

	f := NewFlutterwaveWithBaseURL("flw_test", srv.URL)
	_, err := f.Initialize(context.Background(), InitRequest{AmountMinor: 25000, Currency: "XXX", Reference: "ref-9"})
	assert.ErrorIs(t, err, ErrGatewayRejected)
}

func TestFlutterwaveVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v3/transactions/verify_by_reference", r.URL.Path)
		require.Equal(t, "ref-9", r.URL.Query().Get("tx_ref"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"status": "successful", "amount": 250, "currency": "NGN"},
		})
	}))
	defer srv.Close()

	f := NewFlutterwaveWithBaseURL("flw_test", srv.URL)
	v, err := f.Verify(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.True(t, v.Confirmed)
	// Major units normalized back to minor.
	assert.Equal(t, int64(25000), v.AmountMinor)
	assert.Equal(t, "NGN", v.Currency)
}

func TestFlutterwaveVerifyFractionalAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"status": "successful", "amount": 477.19, "currency": "NGN"},
		})
	}))
	defer srv.Close()

	f := NewFlutterwaveWithBaseURL("flw_test", srv.URL)
	v, err := f.Verify(context.Background(), "ref-9")
	require.NoError(t, err)
	// Rounded to the nearest kobo, never truncated.
	assert.Equal(t, int64(47719), v.AmountMinor)
}

func TestFlutterwaveVerifyFailedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]any{"status": "failed", "amount": 250, "currency": "NGN"},
		})
	}))
	defer srv.Close()

	f := NewFlutterwaveWithBaseURL("flw_test", srv.URL)
	v, err := f.Verify(context.Background(), "ref-9")
	require.NoError(t, err)
	assert.False(t, v.Confirmed)
}

func TestFlutterwaveVerifyUnreachable(t *testing.T) {
	f := NewFlutterwaveWithBaseURL("flw_test", "http://127.0.0.1:1")
	_, err := f.Verify(context.Background(), "ref-9")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}
