package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const paystackBaseURL = "https://api.paystack.co"

type Paystack struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystack(secretKey string) *Paystack {
	return &Paystack{
		secretKey: strings.TrimSpace(secretKey),
		baseURL:   paystackBaseURL,
		client:    newHTTPClient(),
	}
}

// NewPaystackWithBaseURL points the adapter at a non-default API host.
func NewPaystackWithBaseURL(secretKey, baseURL string) *Paystack {
	p := NewPaystack(secretKey)
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

type paystackInitRequest struct {
	Amount    int64            `json:"amount"`
	Email     string           `json:"email"`
	Reference string           `json:"reference"`
	Metadata  paystackMetadata `json:"metadata"`
}

// paystackMetadata is echoed back verbatim inside the charge.success webhook,
// which is how the reconciler learns who paid and for what.
type paystackMetadata struct {
	TelegramChatID   int64  `json:"telegram_chat_id"`
	PaymentReference string `json:"payment_reference"`
	SubscriptionType string `json:"subscription_type"`
	Username         string `json:"username"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
	} `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitRequest) (string, error) {
	body, err := json.Marshal(paystackInitRequest{
		Amount:    req.AmountMinor,
		Email:     req.Email,
		Reference: req.Reference,
		Metadata: paystackMetadata{
			TelegramChatID:   req.ChatID,
			PaymentReference: req.Reference,
			SubscriptionType: req.PlanType,
			Username:         req.Username,
		},
	})
	if err != nil {
		return "", err
	}

	var resp paystackInitResponse
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		return "", err
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return "", fmt.Errorf("%w: %s", ErrGatewayRejected, resp.Message)
	}
	return resp.Data.AuthorizationURL, nil
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (Verification, error) {
	var resp paystackVerifyResponse
	if err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &resp); err != nil {
		return Verification{}, err
	}
	return Verification{
		Confirmed:   resp.Status && resp.Data.Status == "success",
		AmountMinor: resp.Data.Amount,
		Currency:    resp.Data.Currency,
	}, nil
}

func (p *Paystack) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: paystack returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: paystack returned %d", ErrGatewayRejected, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
