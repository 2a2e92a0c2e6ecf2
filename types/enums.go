package types

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionSuccess   SessionStatus = "success"
	SessionCancelled SessionStatus = "cancelled"
)

// Terminal reports whether a session status accepts no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionSuccess || s == SessionCancelled
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

type GatewayName string

const (
	GatewayPaystack    GatewayName = "paystack"
	GatewayFlutterwave GatewayName = "flutterwave"
)
