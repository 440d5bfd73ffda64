// Package billing owns plan entitlements: paid tiers, checkout sessions, the
// payment webhook and the gating of stored plans by tier.
package billing

import (
	"errors"
	"time"
)

// Billing errors.
var (
	ErrUnknownPlanType      = errors.New("unknown plan type")
	ErrProductNotConfigured = errors.New("checkout product not configured")
	ErrCheckoutUnavailable  = errors.New("checkout provider not configured")
	ErrMissingSignature     = errors.New("missing webhook signature")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
	ErrMalformedEvent       = errors.New("malformed webhook event")
)

// Tier is the level of plan access a user has paid for.
type Tier string

const (
	TierFree     Tier = "free"
	TierOneMonth Tier = "1month"
	TierFull     Tier = "full"
)

// ParsePlanType maps a checkout plan type to a paid tier. Empty means full.
func ParsePlanType(s string) (Tier, error) {
	switch Tier(s) {
	case "", TierFull:
		return TierFull, nil
	case TierOneMonth:
		return TierOneMonth, nil
	default:
		return "", ErrUnknownPlanType
	}
}

// Entitlement is the paid state stored on the user's plan row.
type Entitlement struct {
	UserID string `json:"userId"`
	IsPaid bool   `json:"isPaid"`
	Tier   Tier   `json:"tier"`
}

// Effective resolves the tier that gates reads: unpaid is always free, and a
// paid row without a tier is full.
func (e Entitlement) Effective() Tier {
	if !e.IsPaid {
		return TierFree
	}
	switch e.Tier {
	case TierOneMonth:
		return TierOneMonth
	default:
		return TierFull
	}
}

// ActionPaymentSuccess is the activity log action recorded for a settled payment.
const ActionPaymentSuccess = "payment_success"

// Activity is an append-only audit entry.
type Activity struct {
	UserID    string         `json:"userId"`
	Action    string         `json:"actionType"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CheckoutRequest asks for a hosted checkout session.
type CheckoutRequest struct {
	UserID   string
	Email    string
	Name     string
	Currency string
	PlanType string
	Origin   string
}

// CheckoutSession is the provider's hosted payment page.
type CheckoutSession struct {
	PaymentLink string `json:"paymentLink"`
	PlanType    Tier   `json:"planType"`
}

// SessionRequest is what a checkout provider needs to open a hosted session.
type SessionRequest struct {
	ProductID      string
	Email          string
	Name           string
	BillingCountry string
	ReturnURL      string
	Metadata       map[string]string
}

// EventPaymentSucceeded is the webhook event type that unlocks a tier.
const EventPaymentSucceeded = "payment.succeeded"

// WebhookEvent is the subset of the payment provider's event payload we act on.
type WebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		PaymentID   string            `json:"payment_id"`
		TotalAmount int64             `json:"total_amount"`
		Currency    string            `json:"currency"`
		Metadata    map[string]string `json:"metadata"`
	} `json:"data"`
}
