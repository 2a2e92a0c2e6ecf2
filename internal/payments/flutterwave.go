package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
)

const flutterwaveBaseURL = "https://api.flutterwave.com"

type Flutterwave struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewFlutterwave(secretKey string) *Flutterwave {
	return &Flutterwave{
		secretKey: strings.TrimSpace(secretKey),
		baseURL:   flutterwaveBaseURL,
		client:    newHTTPClient(),
	}
}

func NewFlutterwaveWithBaseURL(secretKey, baseURL string) *Flutterwave {
	f := NewFlutterwave(secretKey)
	f.baseURL = strings.TrimRight(baseURL, "/")
	return f
}

type flutterwaveInitRequest struct {
	TxRef    string          `json:"tx_ref"`
	Amount   string          `json:"amount"`
	Currency string          `json:"currency"`
	Customer flutterwaveCust `json:"customer"`
	Meta     flutterwaveMeta `json:"meta"`
}

type flutterwaveCust struct {
	Email string `json:"email"`
}

type flutterwaveMeta struct {
	TelegramChatID   int64  `json:"telegram_chat_id"`
	SubscriptionType string `json:"subscription_type"`
	Username         string `json:"username"`
}

type flutterwaveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

func (f *Flutterwave) Initialize(ctx context.Context, req InitRequest) (string, error) {
	// Flutterwave takes amounts in major units, unlike Paystack.
	body, err := json.Marshal(flutterwaveInitRequest{
		TxRef:    req.Reference,
		Amount:   fmt.Sprintf("%d.%02d", req.AmountMinor/100, req.AmountMinor%100),
		Currency: req.Currency,
		Customer: flutterwaveCust{Email: req.Email},
		Meta: flutterwaveMeta{
			TelegramChatID:   req.ChatID,
			SubscriptionType: req.PlanType,
			Username:         req.Username,
		},
	})
	if err != nil {
		return "", err
	}

	var resp flutterwaveInitResponse
	if err := f.do(ctx, http.MethodPost, "/v3/payments", body, &resp); err != nil {
		return "", err
	}
	if resp.Status != "success" || resp.Data.Link == "" {
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Message)
	}
	return resp.Data.Link, nil
}

type flutterwaveVerifyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Status   string  `json:"status"`
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

func (f *Flutterwave) Verify(ctx context.Context, reference string) (Verification, error) {
	path := "/v3/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	var resp flutterwaveVerifyResponse
	if err := f.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Verification{}, err
	}
	return Verification{
		Confirmed:   resp.Status == "success" && resp.Data.Status == "successful",
		AmountMinor: int64(math.Round(resp.Data.Amount * 100)),
		Currency:    resp.Data.Currency,
	}, nil
}

func (f *Flutterwave) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: flutterwave returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: flutterwave returned %d", ErrGatewayRejected, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
