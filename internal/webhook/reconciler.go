package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/obinna-lab/groupgate/internal/config"
	"github.com/obinna-lab/groupgate/internal/messages"
	"github.com/obinna-lab/groupgate/internal/payments"
	"github.com/obinna-lab/groupgate/store"
	"github.com/obinna-lab/groupgate/types"
	"go.uber.org/zap"
)

// Outcome tells the HTTP layer how to acknowledge a processed event.
type Outcome int

const (
	// OutcomeActivated: subscription written, session finalized.
	OutcomeActivated Outcome = iota
	// OutcomeDuplicate: the reference already reached success; side effects
	// were not repeated.
	OutcomeDuplicate
	// OutcomeIgnored: authenticated but non-actionable (irrelevant event
	// type, cancelled or unknown reference, unconfirmed charge). Acknowledged
	// so the provider stops retrying.
	OutcomeIgnored
)

type Memberships interface {
	IssueInvite(ctx context.Context, ttl time.Duration, maxUses int) (string, error)
	Restore(ctx context.Context, userID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Reconciler drives a payment reference from pending to success: second-channel
// verification, the authoritative subscription write, then best-effort group
// admission and notification.
type Reconciler struct {
	sessions  types.SessionStore
	subs      types.SubscriptionStore
	gateways  map[types.GatewayName]payments.Gateway
	members   Memberships
	notifier  Notifier
	plans     map[string]config.Plan
	groupID   int64
	inviteTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewReconciler(
	sessions types.SessionStore,
	subs types.SubscriptionStore,
	gateways map[types.GatewayName]payments.Gateway,
	members Memberships,
	notifier Notifier,
	plans map[string]config.Plan,
	groupID int64,
	inviteTTL time.Duration,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		sessions:  sessions,
		subs:      subs,
		gateways:  gateways,
		members:   members,
		notifier:  notifier,
		plans:     plans,
		groupID:   groupID,
		inviteTTL: inviteTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs the reconciliation state machine for one authenticated event.
// A returned error means the authoritative state was not committed and the
// provider should retry.
func (r *Reconciler) Process(ctx context.Context, provider types.GatewayName, ev Event) (Outcome, error) {
	log := r.logger.With(
		zap.String("provider", string(provider)),
		zap.String("reference", ev.Reference),
	)

	if !ev.ChargeSucceeded {
		log.Debug("ignoring non-charge event")
		return OutcomeIgnored, nil
	}

	session, err := r.sessions.GetPaymentSession(ctx, ev.Reference)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("webhook for unknown payment reference")
			return OutcomeIgnored, nil
		}
		return 0, fmt.Errorf("load payment session: %w", err)
	}

	switch session.Status {
	case types.SessionSuccess:
		log.Info("duplicate webhook delivery, side effects skipped")
		return OutcomeDuplicate, nil
	case types.SessionCancelled:
		log.Info("webhook for cancelled session, not actionable")
		return OutcomeIgnored, nil
	}

	plan, ok := r.plans[ev.PlanType]
	if !ok {
		return 0, fmt.Errorf("%w: unknown plan %q", ErrBadPayload, ev.PlanType)
	}

	gateway, ok := r.gateways[provider]
	if !ok {
		return 0, fmt.Errorf("no gateway configured for provider %q", provider)
	}
	verification, err := gateway.Verify(ctx, ev.Reference)
	if err != nil {
		return 0, fmt.Errorf("verify transaction: %w", err)
	}
	if !verification.Confirmed {
		log.Warn("gateway did not confirm charge, subscription not activated")
		return OutcomeIgnored, nil
	}
	if verification.AmountMinor < plan.PriceMinor {
		log.Warn("verified amount below plan price, subscription not activated",
			zap.Int64("verified_amount", verification.AmountMinor),
			zap.Int64("plan_price", plan.PriceMinor),
		)
		return OutcomeIgnored, nil
	}

	start := r.now().UTC()
	sub := types.Subscription{
		ChatID:           ev.ChatID,
		Username:         ev.Username,
		PlanType:         ev.PlanType,
		StartDate:        start,
		EndDate:          start.Add(plan.Duration),
		PaymentReference: ev.Reference,
		GroupID:          r.groupID,
		Status:           types.SubscriptionActive,
	}
	if err := r.subs.UpsertSubscription(ctx, sub); err != nil {
		return 0, fmt.Errorf("write subscription: %w", err)
	}
	if err := r.sessions.SetPaymentSessionStatus(ctx, ev.Reference, types.SessionSuccess); err != nil {
		// A retry re-runs the upsert above, which is idempotent.
		return 0, fmt.Errorf("finalize payment session: %w", err)
	}

	// Everything below is best effort: the subscription is committed and a
	// failure here must never surface as a retry-triggering error.
	if err := r.members.Restore(ctx, ev.ChatID); err != nil {
		log.Error("failed to lift prior ban", zap.Error(err))
	}

	invite, err := r.members.IssueInvite(ctx, r.inviteTTL, 1)
	notice := messages.PaymentConfirmed(verification.AmountMinor, verification.Currency, ev.PlanType, invite)
	if err != nil {
		log.Error("failed to issue invite link", zap.Error(err))
		notice = messages.PaymentConfirmedNoInvite(verification.AmountMinor, verification.Currency, ev.PlanType)
	}
	if err := r.notifier.Notify(ctx, ev.ChatID, notice); err != nil {
		log.Error("failed to notify user", zap.Error(err))
	}

	log.Info("subscription activated",
		zap.Int64("chat_id", ev.ChatID),
		zap.String("plan", ev.PlanType),
		zap.Time("end_date", sub.EndDate),
	)
	return OutcomeActivated, nil
}
