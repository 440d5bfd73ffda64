package models

import (
	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/mealplan"
)

// GeneratedPlan is the response to a synchronous generation request: the
// stored plan gated by the caller's tier plus the progress messages emitted
// while it was built.
type GeneratedPlan struct {
	*billing.GatedPlan
	Progress []string `json:"progress"`
}

// PlanHistory lists archived plans, newest first.
type PlanHistory struct {
	Items []*mealplan.HistoryEntry `json:"items"`
}

// JobAccepted is returned when a generation job has been queued.
type JobAccepted struct {
	JobID  string      `json:"jobId"`
	Status jobs.Status `json:"status"`
}

// CheckoutRequest is the body of POST /v1/billing/checkout.
type CheckoutRequest struct {
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Currency string `json:"currency,omitempty"`
	PlanType string `json:"planType,omitempty"`
}

// EntitlementResponse reports the tier that gates the caller's plan reads.
type EntitlementResponse struct {
	IsPaid bool         `json:"isPaid"`
	Tier   billing.Tier `json:"tier"`
}

// WebhookAck acknowledges a payment provider event.
type WebhookAck struct {
	Received bool `json:"received"`
}
