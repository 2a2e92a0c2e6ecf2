package types

import (
	"context"
	"time"
)

type PaymentSession struct {
	ID        int64
	UserID    int64
	Reference string
	Status    SessionStatus
	CreatedAt time.Time
}

type Subscription struct {
	ChatID           int64
	Username         string
	PlanType         string
	StartDate        time.Time
	EndDate          time.Time
	PaymentReference string
	GroupID          int64
	Status           SubscriptionStatus
}

// Expired reports whether an active subscription has lapsed at the given
// instant. Inactive rows are never considered expired.
func (s *Subscription) Expired(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.Before(now)
}

type SessionStore interface {
	UpsertPaymentSession(ctx context.Context, userID int64, reference string, status SessionStatus) error
	SetPaymentSessionStatus(ctx context.Context, reference string, status SessionStatus) error
	GetPaymentSession(ctx context.Context, reference string) (*PaymentSession, error)
}

type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub Subscription) error
	GetActiveSubscription(ctx context.Context, chatID int64) (*Subscription, error)
	ListExpired(ctx context.Context) ([]Subscription, error)
	SetSubscriptionStatus(ctx context.Context, chatID int64, reference string, status SubscriptionStatus) error
	RemoveSubscription(ctx context.Context, chatID int64) error
}

// StateStore keeps short-lived conversation state between callback steps:
// which gateway the user picked before choosing a plan.
type StateStore interface {
	SetGateway(userID int64, gateway GatewayName) error
	GetGateway(userID int64) (GatewayName, error)
	ClearGateway(userID int64) error
}
