package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/obinna-lab/groupgate/internal/config"
	"github.com/obinna-lab/groupgate/internal/payments"
	"github.com/obinna-lab/groupgate/internal/reference"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

var ErrUnknownPlan = errors.New("unknown subscription plan")

// Flow implements the conversation-facing operations behind the keyboards:
// start a payment, query subscription status, cancel a pending payment.
type Flow struct {
	sessions types.SessionStore
	subs     types.SubscriptionStore
	gateways map[types.GatewayName]payments.Gateway
	cfg      *config.Config
	logger   *zap.Logger
}

func NewFlow(
	sessions types.SessionStore,
	subs types.SubscriptionStore,
	gateways map[types.GatewayName]payments.Gateway,
	cfg *config.Config,
	logger *zap.Logger,
) *Flow {
	return &Flow{
		sessions: sessions,
		subs:     subs,
		gateways: gateways,
		cfg:      cfg,
		logger:   logger,
	}
}

// InitiatePayment creates a gateway checkout for the plan and records the
// pending session. The returned URL is where the user completes payment; the
// reference inside it is what the webhook later reconciles against.
func (f *Flow) InitiatePayment(ctx context.Context, gatewayName types.GatewayName, planType string, chatID int64, username string) (checkoutURL, ref string, err error) {
	plan, ok := f.cfg.Plan(planType)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownPlan, planType)
	}
	gateway, ok := f.gateways[gatewayName]
	if !ok {
		return "", "", fmt.Errorf("no gateway configured for %q", gatewayName)
	}

	ref = reference.Generate()
	checkoutURL, err = gateway.Initialize(ctx, payments.InitRequest{
		AmountMinor: plan.PriceMinor,
		Currency:    f.cfg.Currency,
		Email:       checkoutEmail(username, chatID),
		Reference:   ref,
		ChatID:      chatID,
		Username:    username,
		PlanType:    planType,
	})
	if err != nil {
		return "", "", fmt.Errorf("initiate %s checkout: %w", gatewayName, err)
	}

	if err := f.sessions.UpsertPaymentSession(ctx, chatID, ref, types.SessionPending); err != nil {
		return "", "", fmt.Errorf("record payment session: %w", err)
	}

	f.logger.Info("payment initiated",
		zap.String("gateway", string(gatewayName)),
		zap.String("plan", planType),
		zap.Int64("chat_id", chatID),
		zap.String("reference", ref),
	)
	return checkoutURL, ref, nil
}

// QueryStatus returns the user's active subscription, or nil without error if
// there is none.
func (f *Flow) QueryStatus(ctx context.Context, chatID int64) (*types.Subscription, error) {
	sub, err := f.subs.GetActiveSubscription(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// Cancel moves a pending session to cancelled. Sessions that already reached
// a terminal state are left untouched and reported via store.ErrNotFound.
func (f *Flow) Cancel(ctx context.Context, ref string) error {
	return f.sessions.SetPaymentSessionStatus(ctx, ref, types.SessionCancelled)
}

// Gateways rarely accept empty customer emails; Telegram does not expose one,
// so a synthetic address keyed to the account is used.
func checkoutEmail(username string, chatID int64) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Sprintf("user%d@groupgate.bot", chatID)
	}
	return username + "@groupgate.bot"
}
