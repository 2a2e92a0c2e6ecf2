package webhook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obinna-lab/groupgate/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPaystackSecret  = "sk_test_123"
	testFlutterwaveHash = "flw-hash-456"
)

func newTestServer(t *testing.T) (*Server, *reconcilerFixture) {
	t.Helper()
	f := newReconcilerFixture(t)
	s := NewServer(f.reconciler, testPaystackSecret, testFlutterwaveHash, f.reconciler.logger)
	return s, f
}

func paystackBody(ref string) string {
	return fmt.Sprintf(`{
		"event": "charge.success",
		"data": {
			"reference": %q,
			"amount": 25000,
			"currency": "NGN",
			"metadata": {
				"telegram_chat_id": 42,
				"payment_reference": %q,
				"subscription_type": "30 Minutes",
				"username": "ada"
			}
		}
	}`, ref, ref)
}

func postWebhook(s *Server, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPaystackWebhookHappyPath(t *testing.T) {
	s, f := newTestServer(t)
	require.NoError(t, f.sessions.UpsertPaymentSession(context.Background(), 42, "ref-1", types.SessionPending))

	body := paystackBody("ref-1")
	rec := postWebhook(s, "/webhook/paystack", body, map[string]string{
		"x-paystack-signature": paystackSignature(testPaystackSecret, []byte(body)),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.SessionSuccess, f.sessions.status("ref-1"))
	sub, ok := f.subs.get(42)
	require.True(t, ok)
	assert.Equal(t, types.SubscriptionActive, sub.Status)
	assert.Equal(t, 1, f.members.invites)
}

func TestPaystackWebhookBadSignature(t *testing.T) {
	s, f := newTestServer(t)
	require.NoError(t, f.sessions.UpsertPaymentSession(context.Background(), 42, "ref-1", types.SessionPending))

	body := paystackBody("ref-1")
	rec := postWebhook(s, "/webhook/paystack", body, map[string]string{
		"x-paystack-signature": "deadbeef",
	})

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	// No mutation of any kind.
	assert.Equal(t, types.SessionPending, f.sessions.status("ref-1"))
	assert.Equal(t, 0, f.subs.upserts)
	assert.Equal(t, 0, f.gateway.verifyCalls)
}

func TestPaystackWebhookMalformedPayload(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"event":` // truncated JSON
	rec := postWebhook(s, "/webhook/paystack", body, map[string]string{
		"x-paystack-signature": paystackSignature(testPaystackSecret, []byte(body)),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaystackWebhookIrrelevantEventAcknowledged(t *testing.T) {
	s, f := newTestServer(t)

	body := `{"event":"subscription.disable","data":{}}`
	rec := postWebhook(s, "/webhook/paystack", body, map[string]string{
		"x-paystack-signature": paystackSignature(testPaystackSecret, []byte(body)),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.subs.upserts)
}

func TestPaystackWebhookInternalFailureReturns500(t *testing.T) {
	s, f := newTestServer(t)
	require.NoError(t, f.sessions.UpsertPaymentSession(context.Background(), 42, "ref-1", types.SessionPending))
	f.subs.failUpsert = true

	body := paystackBody("ref-1")
	rec := postWebhook(s, "/webhook/paystack", body, map[string]string{
		"x-paystack-signature": paystackSignature(testPaystackSecret, []byte(body)),
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, types.SessionPending, f.sessions.status("ref-1"))
}

func TestPaystackWebhookDuplicateDelivery(t *testing.T) {
	s, f := newTestServer(t)
	require.NoError(t, f.sessions.UpsertPaymentSession(context.Background(), 42, "ref-1", types.SessionPending))

	body := paystackBody("ref-1")
	headers := map[string]string{
		"x-paystack-signature": paystackSignature(testPaystackSecret, []byte(body)),
	}

	rec := postWebhook(s, "/webhook/paystack", body, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postWebhook(s, "/webhook/paystack", body, headers)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, f.subs.upserts)
	assert.Equal(t, 1, f.members.invites)
	assert.Len(t, f.notifier.sent, 1)
}

func TestFlutterwaveWebhookHappyPath(t *testing.T) {
	s, f := newTestServer(t)
	require.NoError(t, f.sessions.UpsertPaymentSession(context.Background(), 99, "ref-9", types.SessionPending))
	f.reconciler.gateways[types.GatewayFlutterwave] = f.gateway

	body := `{
		"event": "charge.completed",
		"data": {
			"tx_ref": "ref-9",
			"amount": 250,
			"currency": "NGN",
			"status": "successful",
			"meta": {"telegram_chat_id": 99, "subscription_type": "30 Minutes", "username": "chidi"}
		}
	}`
	rec := postWebhook(s, "/webhook/flutterwave", body, map[string]string{
		"verif-hash": testFlutterwaveHash,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.SessionSuccess, f.sessions.status("ref-9"))
	_, ok := f.subs.get(99)
	assert.True(t, ok)
}

func TestFlutterwaveWebhookBadHash(t *testing.T) {
	s, f := newTestServer(t)

	rec := postWebhook(s, "/webhook/flutterwave", `{"event":"charge.completed"}`, map[string]string{
		"verif-hash": "wrong",
	})

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, f.subs.upserts)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
