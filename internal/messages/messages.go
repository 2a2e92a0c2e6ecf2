package messages

import (
	"fmt"
	"strings"
	"time"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

func StartWelcome() string {
	return "👋 <b>Welcome!</b>\nThis bot manages paid access to the private group.\n\n" +
		"Use the buttons below to join the group or check your subscription."
}

func ErrorDefault() string {
	return "🚫 <b>Something went wrong</b>\nPlease try again."
}

func ErrorUnknownCommand() string {
	return "❓ <b>Unknown command</b>\nUse /start to see the menu."
}

func ChooseGateway() string {
	return "💳 <b>Choose a payment gateway:</b>"
}

func ChoosePlan() string {
	return "🗓 <b>Choose a subscription plan:</b>"
}

func InvalidPlan() string {
	return "🚫 <b>Invalid subscription plan</b>\nPlease pick one from the menu."
}

func PlanAmount(amountMinor int64, currency string) string {
	return fmt.Sprintf("%s %s", formatMinor(amountMinor), Escape(currency))
}

func InitiatingPayment(plan string, amountMinor int64, currency string) string {
	return fmt.Sprintf("⏳ <b>Setting up payment</b>\nPlan: %s (%s). Please wait...",
		Escape(plan), PlanAmount(amountMinor, currency))
}

func PaymentLink(plan string) string {
	return fmt.Sprintf("💳 <b>%s plan</b>\nThis is a one-time payment, not a recurring charge.\n\n"+
		"Tap <b>Pay Now</b> to complete the payment and join the group.", Escape(plan))
}

func PaymentInitFailed() string {
	return "🚫 <b>Could not start the payment</b>\nPlease try again later."
}

func PaymentCancelled() string {
	return "❌ <b>Payment cancelled</b>"
}

func PaymentCancelFailed() string {
	return "🚫 <b>Could not cancel the payment</b>\nIt may already be completed or cancelled."
}

func PaymentConfirmed(amountMinor int64, currency, plan, inviteLink string) string {
	return fmt.Sprintf("✅ <b>Payment received</b>\nYour %s subscription of %s is active.\n\n"+
		"Join the group with this single-use link:\n%s",
		Escape(plan), PlanAmount(amountMinor, currency), inviteLink)
}

func PaymentConfirmedNoInvite(amountMinor int64, currency, plan string) string {
	return fmt.Sprintf("✅ <b>Payment received</b>\nYour %s subscription of %s is active.\n\n"+
		"We could not create your invite link. Please contact support.",
		Escape(plan), PlanAmount(amountMinor, currency))
}

func SubscriptionExpired() string {
	return "⌛️ <b>Subscription expired</b>\nYou have been removed from the group. " +
		"Renew your subscription to join again."
}

func NoActiveSubscription() string {
	return "You do not have an active subscription."
}

func SubscriptionStatus(endDate time.Time) string {
	return fmt.Sprintf("🗓 <b>Subscription active</b>\nExpires on: %s", formatExpiry(endDate))
}

func BtnJoinGroup() string   { return "Join Private Group" }
func BtnStatus() string      { return "Subscription Status" }
func BtnPayNow() string      { return "Pay Now" }
func BtnCancel() string      { return "Cancel" }
func BtnRenew() string       { return "Renew" }
func BtnPaystack() string    { return "Paystack" }
func BtnFlutterwave() string { return "Flutterwave" }

func GatewayPlaceholder() string {
	return "Select an option below to interact with the bot"
}

func formatMinor(amountMinor int64) string {
	major := amountMinor / 100
	frac := amountMinor % 100
	if frac == 0 {
		return groupDigits(major)
	}
	return fmt.Sprintf("%s.%02d", groupDigits(major), frac)
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatExpiry(t time.Time) string {
	day := t.Day()
	return fmt.Sprintf("%d%s %s, %d at %s",
		day, daySuffix(day), t.Month().String(), t.Year(), t.Format("3:04PM"))
}

func daySuffix(day int) string {
	if day%100 >= 10 && day%100 <= 20 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
