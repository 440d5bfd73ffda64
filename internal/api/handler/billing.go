package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/api/models"
	"github.com/dietlyplans/dietly/internal/api/response"
	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/featureflags"
)

// maxWebhookBody bounds the payment provider payload.
const maxWebhookBody = 1 << 20

// BillingHandler handles checkout, entitlement and the payment webhook.
type BillingHandler struct {
	billing *billing.Service
	flags   *featureflags.Service
	logger  zerolog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService *billing.Service, flags *featureflags.Service, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		billing: billingService,
		flags:   flags,
		logger:  logger,
	}
}

// CreateCheckout handles POST /v1/billing/checkout.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.flags.IsCheckoutEnabled(r.Context()) {
		response.ServiceUnavailable(w, r, "checkout is currently disabled")
		return
	}

	var input models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(r.Context())
	req := billing.CheckoutRequest{
		UserID:   userID,
		Email:    input.Email,
		Name:     input.Name,
		Currency: input.Currency,
		PlanType: input.PlanType,
		Origin:   r.Header.Get("Origin"),
	}
	if req.Email == "" && identity != nil {
		req.Email = identity.Email
	}

	session, err := h.billing.CreateCheckout(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrUnknownPlanType):
			response.BadRequest(w, r, "planType must be 1month or full", []models.FieldError{
				{Field: "planType", Message: "must be 1month or full", Code: "INVALID_ENUM"},
			})
		case errors.Is(err, billing.ErrProductNotConfigured), errors.Is(err, billing.ErrCheckoutUnavailable):
			h.logger.Error().Err(err).Msg("checkout not configured")
			response.ServiceUnavailable(w, r, "checkout is not configured")
		default:
			h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("checkout session failed")
			response.ServiceUnavailable(w, r, "payment provider unavailable")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, session)
}

// GetEntitlement handles GET /v1/billing/entitlement.
func (h *BillingHandler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	ent, err := h.billing.Entitlement(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load entitlement")
		response.InternalError(w, r, "failed to load entitlement")
		return
	}
	response.JSON(w, r, http.StatusOK, models.EntitlementResponse{IsPaid: ent.IsPaid, Tier: ent.Effective()})
}

// Webhook handles POST /v1/billing/webhook. The signature covers the raw
// body, so it is read before any decoding.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, r, "unreadable body", nil)
		return
	}

	_, err = h.billing.HandleWebhook(r.Context(), body, r.Header.Get(billing.SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrWebhookSecretMissing):
			h.logger.Error().Msg("webhook received but no secret is configured")
			response.InternalError(w, r, "webhook secret not configured")
		case errors.Is(err, billing.ErrMissingSignature), errors.Is(err, billing.ErrInvalidSignature):
			response.Unauthorized(w, r, "invalid signature")
		case errors.Is(err, billing.ErrMalformedEvent):
			response.BadRequest(w, r, "malformed event", nil)
		default:
			h.logger.Error().Err(err).Msg("webhook processing failed")
			response.InternalError(w, r, "webhook processing failed")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, models.WebhookAck{Received: true})
}
