package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Checkout defaults.
const (
	DefaultOrigin        = "https://dietlyplans.com"
	DefaultCustomerEmail = "guest@dietlyplans.com"
	DefaultCustomerName  = "Valued Customer"
)

// CheckoutProvider opens hosted checkout sessions and returns the payment URL.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (string, error)
}

// ServiceConfig holds configuration for the billing service.
type ServiceConfig struct {
	Repository Repository
	Checkout   CheckoutProvider

	// Products maps a paid tier to the provider's product id.
	Products map[Tier]string

	WebhookSecret string
	DefaultOrigin string
	Logger        zerolog.Logger
	Clock         func() time.Time
}

// Service handles entitlements, checkout and payment webhooks.
type Service struct {
	repo          Repository
	checkout      CheckoutProvider
	products      map[Tier]string
	webhookSecret string
	origin        string
	logger        zerolog.Logger
	now           func() time.Time
}

// NewService creates a new billing service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.DefaultOrigin == "" {
		cfg.DefaultOrigin = DefaultOrigin
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		repo:          cfg.Repository,
		checkout:      cfg.Checkout,
		products:      cfg.Products,
		webhookSecret: cfg.WebhookSecret,
		origin:        strings.TrimRight(cfg.DefaultOrigin, "/"),
		logger:        cfg.Logger,
		now:           cfg.Clock,
	}
}

// Entitlement returns the user's stored entitlement.
func (s *Service) Entitlement(ctx context.Context, userID string) (*Entitlement, error) {
	return s.repo.GetEntitlement(ctx, userID)
}

// billingCountry forces a banking country only where the provider cannot
// infer it from the buyer's IP.
func billingCountry(currency string) string {
	switch strings.ToUpper(currency) {
	case "AED":
		return "AE"
	case "SAR":
		return "SA"
	default:
		return ""
	}
}

// CreateCheckout opens a hosted checkout session for the requested plan type.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if s.checkout == nil {
		return nil, ErrCheckoutUnavailable
	}
	tier, err := ParsePlanType(req.PlanType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.PlanType)
	}
	productID := s.products[tier]
	if productID == "" {
		return nil, fmt.Errorf("%w: %s", ErrProductNotConfigured, tier)
	}

	email, name := req.Email, req.Name
	if email == "" && name == "" {
		email = DefaultCustomerEmail
	}
	if name == "" {
		name = DefaultCustomerName
	}
	origin := strings.TrimRight(req.Origin, "/")
	if origin == "" {
		origin = s.origin
	}

	link, err := s.checkout.CreateCheckoutSession(ctx, SessionRequest{
		ProductID:      productID,
		Email:          email,
		Name:           name,
		BillingCountry: billingCountry(req.Currency),
		ReturnURL:      origin + "/?success=true",
		Metadata: map[string]string{
			"user_id":   req.UserID,
			"plan_type": string(tier),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.logger.Info().
		Str("user_id", req.UserID).
		Str("plan_type", string(tier)).
		Str("product_id", productID).
		Msg("checkout session created")

	return &CheckoutSession{PaymentLink: link, PlanType: tier}, nil
}

// HandleWebhook verifies and applies a payment provider event. Events other
// than a successful payment are acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookEvent, error) {
	if err := VerifySignature(s.webhookSecret, body, signature); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			s.logger.Warn().Msg("webhook signature mismatch")
		}
		return nil, err
	}

	ev, err := ParseEvent(body)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With().Str("event_type", ev.Type).Str("payment_id", ev.Data.PaymentID).Logger()
	if ev.Type != EventPaymentSucceeded {
		logger.Info().Msg("ignoring webhook event")
		return ev, nil
	}

	userID := ev.Data.Metadata["user_id"]
	if userID == "" {
		logger.Warn().Msg("payment succeeded without user_id metadata")
		return ev, nil
	}

	planType := ev.Data.Metadata["plan_type"]
	tier, err := ParsePlanType(planType)
	if err != nil {
		// unknown labels on a settled payment unlock the full tier
		logger.Warn().Str("plan_type", planType).Msg("unknown plan type on payment, granting full access")
		tier = TierFull
	}

	activity := Activity{
		Action: ActionPaymentSuccess,
		Metadata: map[string]any{
			"provider":  "dodo",
			"amount":    ev.Data.TotalAmount,
			"currency":  ev.Data.Currency,
			"event_id":  ev.Data.PaymentID,
			"plan_tier": string(tier),
		},
		CreatedAt: s.now(),
	}
	if err := s.repo.Grant(ctx, userID, tier, activity); err != nil {
		return nil, fmt.Errorf("grant entitlement: %w", err)
	}

	logger.Info().Str("user_id", userID).Str("tier", string(tier)).Msg("plan unlocked")
	return ev, nil
}
