// Package gemini drafts monthly meal plans with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

const (
	// ProviderName identifies the drafter in logs and the provider registry.
	ProviderName = "gemini"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-1.5-flash"

	// DefaultTimeout bounds a single drafting call.
	DefaultTimeout = 60 * time.Second
)

// ErrEmptyResponse is returned when the model answers without any text.
var ErrEmptyResponse = errors.New("gemini returned no text")

// Config configures the Gemini drafter.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration

	// BaseURL overrides the API endpoint. Empty uses the public endpoint.
	BaseURL    string
	HTTPClient *http.Client

	CircuitBreaker *resilience.CircuitBreakerConfig
	Registry       *resilience.Registry
	Logger         zerolog.Logger
}

// Drafter implements mealplan.Drafter over the genai SDK.
type Drafter struct {
	client   *genai.Client
	model    string
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[string]
	registry *resilience.Registry
	logger   zerolog.Logger
}

// New creates a drafter and registers its circuit breaker.
func New(ctx context.Context, cfg Config) (*Drafter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	logger := cfg.Logger.With().Str("provider", ProviderName).Logger()

	cbConfig := resilience.DraftingCircuitBreakerConfig(ProviderName)
	cbConfig.IsSuccessful = harmlessToModel
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}
	if cbConfig.OnStateChange == nil {
		cbConfig.OnStateChange = resilience.LogStateChanges(logger)
	}

	d := &Drafter{
		client:   client,
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		breaker:  resilience.NewCircuitBreaker[string](cbConfig),
		registry: cfg.Registry,
		logger:   logger,
	}
	if d.registry != nil {
		d.registry.Register(ProviderName, d)
	}
	return d, nil
}

// Name returns the provider name.
func (d *Drafter) Name() string { return ProviderName }

// Draft asks the model for one month phase and returns the raw JSON text.
func (d *Drafter) Draft(ctx context.Context, req mealplan.DraftRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ToSchema(req.Schema),
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	start := time.Now()
	text, err := d.breaker.Execute(func() (string, error) {
		res, err := d.client.Models.GenerateContent(ctx, d.model, []*genai.Content{
			genai.NewContentFromText(req.Directive, genai.RoleUser),
		}, config)
		if err != nil {
			return "", err
		}
		if res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", mealplan.ErrDraftRejected, res.PromptFeedback.BlockReason)
		}
		text := res.Text()
		if text == "" {
			return "", ErrEmptyResponse
		}
		return text, nil
	})

	d.record(err)
	if err != nil {
		d.logger.Warn().Err(err).Int("month", req.Month).Dur("elapsed", time.Since(start)).Msg("drafting call failed")
		return "", classify(err)
	}

	d.logger.Debug().Int("month", req.Month).Int("bytes", len(text)).Dur("elapsed", time.Since(start)).Msg("month drafted")
	return text, nil
}

func (d *Drafter) record(err error) {
	if d.registry == nil {
		return
	}
	if err != nil {
		d.registry.RecordFailure(ProviderName, err)
		return
	}
	d.registry.RecordSuccess(ProviderName)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (d *Drafter) CircuitBreakerState() gobreaker.State {
	return d.breaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (d *Drafter) CircuitBreakerCounts() gobreaker.Counts {
	return d.breaker.Counts()
}

// harmlessToModel reports whether err leaves the breaker untouched.
// Safety-blocked prompts and abandoned calls say nothing about model health.
func harmlessToModel(err error) bool {
	return resilience.IgnoreCanceled(err) || errors.Is(err, mealplan.ErrDraftRejected)
}

// classify marks errors that another attempt cannot fix as rejections. An
// open circuit stays retryable so the caller's backoff still runs.
func classify(err error) error {
	if errors.Is(err, mealplan.ErrDraftRejected) {
		return err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("gemini: %w", resilience.ErrCircuitOpen)
	}
	if code, ok := statusCode(err); ok {
		switch code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %w", mealplan.ErrDraftRejected, err)
		}
	}
	return err
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// ToSchema converts a drafting schema to the SDK representation.
func ToSchema(s *mealplan.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Description: s.Description,
		Items:       ToSchema(s.Items),
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ToSchema(prop)
		}
	}
	return out
}

var _ mealplan.Drafter = (*Drafter)(nil)
