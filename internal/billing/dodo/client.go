// Package dodo creates hosted checkout sessions through the Dodo Payments REST API.
package dodo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

const (
	// ProviderName identifies this checkout provider.
	ProviderName = "dodo"

	TestBaseURL = "https://test.dodopayments.com"
	LiveBaseURL = "https://live.dodopayments.com"
)

// ErrNoPaymentLink is returned when the API succeeds but names no redirect URL.
var ErrNoPaymentLink = errors.New("checkout session has no payment link")

// IsTestKey reports whether the key belongs to the sandbox environment.
func IsTestKey(apiKey string) bool {
	return strings.HasPrefix(apiKey, "test_") || strings.Contains(apiKey, ".")
}

// ClientConfig holds configuration for the Dodo client.
type ClientConfig struct {
	// APIKey is the Dodo Payments API key (required).
	APIKey string

	// BaseURL overrides the environment detected from the key.
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is a Dodo Payments API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Dodo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = LiveBaseURL
		if IsTestKey(cfg.APIKey) {
			baseURL = TestBaseURL
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// BaseURL returns the API environment in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateCheckoutSession opens a hosted checkout and returns its payment URL.
func (c *Client) CreateCheckoutSession(ctx context.Context, req billing.SessionRequest) (string, error) {
	body := checkoutRequest{
		ProductCart:        []cartItem{{ProductID: req.ProductID, Quantity: 1}},
		Metadata:           req.Metadata,
		ReturnURL:          req.ReturnURL,
		BillingCountryCode: req.BillingCountry,
		Customer: customer{
			Email: req.Email,
			Name:  req.Name,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout-sessions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	var out checkoutResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Str("message", out.Message).Msg("dodo checkout failed")
		if out.Message != "" {
			return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, out.Message)
		}
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decoding response: %w", decodeErr)
	}

	link := firstNonEmpty(out.PaymentLink, out.URL, out.CheckoutURL)
	if link == "" {
		return "", ErrNoPaymentLink
	}
	return link, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Dodo API request and response structures.

type cartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type customer struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type checkoutRequest struct {
	ProductCart        []cartItem        `json:"product_cart"`
	Customer           customer          `json:"customer"`
	Metadata           map[string]string `json:"metadata"`
	ReturnURL          string            `json:"return_url"`
	BillingCountryCode string            `json:"billing_country_code,omitempty"`
}

type checkoutResponse struct {
	PaymentLink string `json:"payment_link"`
	URL         string `json:"url"`
	CheckoutURL string `json:"checkout_url"`
	Message     string `json:"message"`
}

// Ensure Client implements billing.CheckoutProvider.
var _ billing.CheckoutProvider = (*Client)(nil)
