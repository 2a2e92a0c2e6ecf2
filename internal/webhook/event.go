package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrBadPayload = errors.New("malformed webhook payload")

// Event is the provider-neutral shape of a gateway notification. ChargeSucceeded
// is the only event type the reconciler acts on.
type Event struct {
	ChargeSucceeded bool
	Reference       string
	AmountMinor     int64
	Currency        string
	ChatID          int64
	Username        string
	PlanType        string
}

// VerifyPaystackSignature recomputes the HMAC-SHA512 of the raw body with the
// Paystack secret key and compares it to the x-paystack-signature header.
// Paystack specifies SHA512; any other digest fails verification.
func VerifyPaystackSignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyFlutterwaveSignature compares the verif-hash header against the
// configured webhook hash. Flutterwave sends the shared hash verbatim rather
// than signing the body.
func VerifyFlutterwaveSignature(webhookHash, signature string) bool {
	if webhookHash == "" {
		return false
	}
	return hmac.Equal([]byte(webhookHash), []byte(signature))
}

type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		Metadata  struct {
			TelegramChatID   int64  `json:"telegram_chat_id"`
			PaymentReference string `json:"payment_reference"`
			SubscriptionType string `json:"subscription_type"`
			Username         string `json:"username"`
		} `json:"metadata"`
	} `json:"data"`
}

func ParsePaystackEvent(body []byte) (Event, error) {
	var pe paystackEvent
	if err := json.Unmarshal(body, &pe); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if pe.Event == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrBadPayload)
	}

	ev := Event{
		ChargeSucceeded: pe.Event == "charge.success",
		Reference:       pe.Data.Reference,
		AmountMinor:     pe.Data.Amount,
		Currency:        pe.Data.Currency,
		ChatID:          pe.Data.Metadata.TelegramChatID,
		Username:        pe.Data.Metadata.Username,
		PlanType:        pe.Data.Metadata.SubscriptionType,
	}
	if ev.Reference == "" {
		ev.Reference = pe.Data.Metadata.PaymentReference
	}
	if ev.ChargeSucceeded && (ev.Reference == "" || ev.ChatID == 0) {
		return Event{}, fmt.Errorf("%w: charge.success without reference or chat id", ErrBadPayload)
	}
	return ev, nil
}

type flutterwaveEvent struct {
	Event string `json:"event"`
	Data  struct {
		TxRef    string  `json:"tx_ref"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
		Status   string  `json:"status"`
		Meta     struct {
			TelegramChatID   int64  `json:"telegram_chat_id"`
			SubscriptionType string `json:"subscription_type"`
			Username         string `json:"username"`
		} `json:"meta"`
	} `json:"data"`
}

func ParseFlutterwaveEvent(body []byte) (Event, error) {
	var fe flutterwaveEvent
	if err := json.Unmarshal(body, &fe); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if fe.Event == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrBadPayload)
	}

	ev := Event{
		ChargeSucceeded: fe.Event == "charge.completed" && fe.Data.Status == "successful",
		Reference:       fe.Data.TxRef,
		// Rounded, not truncated: 477.19 in float64 is fractionally below
		// 47719 kobo and truncation would lose one.
		AmountMinor:     int64(math.Round(fe.Data.Amount * 100)),
		Currency:        fe.Data.Currency,
		ChatID:          fe.Data.Meta.TelegramChatID,
		Username:        fe.Data.Meta.Username,
		PlanType:        fe.Data.Meta.SubscriptionType,
	}
	if ev.ChargeSucceeded && (ev.Reference == "" || ev.ChatID == 0) {
		return Event{}, fmt.Errorf("%w: charge.completed without reference or chat id", ErrBadPayload)
	}
	return ev, nil
}
