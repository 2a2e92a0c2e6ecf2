package payments

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrGatewayUnavailable wraps transport failures talking to a provider.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected means the provider declined the request itself.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
)

// InitRequest describes a hosted-checkout creation. AmountMinor is in minor
// currency units (kobo for NGN) regardless of what the provider's API wants;
// each adapter converts as needed.
type InitRequest struct {
	AmountMinor int64
	Currency    string
	Email       string
	Reference   string
	ChatID      int64
	Username    string
	PlanType    string
}

// Verification is the normalized result of a second-channel transaction
// check against the provider's API.
type Verification struct {
	Confirmed   bool
	AmountMinor int64
	Currency    string
}

type Gateway interface {
	// Initialize creates a hosted checkout and returns its URL. The
	// reference is embedded so the later webhook can be correlated.
	Initialize(ctx context.Context, req InitRequest) (string, error)
	// Verify re-queries the provider's transaction-status endpoint for the
	// reference. It never trusts webhook payload claims.
	Verify(ctx context.Context, reference string) (Verification, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
