package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the provider while its breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig configures a provider HTTP client.
type ClientConfig struct {
	// Name labels the breaker and the registry entry.
	Name string

	// Timeout bounds each attempt, not the whole call. Default 10s.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first. Zero disables retries.
	MaxRetries uint64

	InitialInterval time.Duration // default 100ms
	MaxInterval     time.Duration // default 5s; also caps a server's Retry-After

	// CircuitBreaker defaults to DefaultCircuitBreakerConfig(Name).
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives the client at construction and every
	// call outcome afterwards.
	Registry *Registry
}

// DefaultClientConfig is the configuration used for climate and billing calls.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cb,
	}
}

// Client sends provider requests through a circuit breaker, retrying 5xx,
// 429 and transport failures with exponential backoff.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	cfg     ClientConfig
}

// NewClient builds a Client, filling zero durations with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	cbCfg := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbCfg = *cfg.CircuitBreaker
	}

	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewCircuitBreaker[*http.Response](cbCfg), //nolint:bodyclose // type parameter
		cfg:     cfg,
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Do sends req. A response is returned for any status the provider answered
// with, including a 5xx that outlived its retries; the error is non-nil only
// when no response could be obtained. Requests whose body cannot be rewound
// (no GetBody) are sent once.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	retries := c.cfg.MaxRetries
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		retries = 0
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialInterval
	exp.MaxInterval = c.cfg.MaxInterval
	exp.MaxElapsedTime = 0
	hinted := &hintedBackOff{BackOff: exp, max: c.cfg.MaxInterval}
	policy := backoff.WithContext(backoff.WithMaxRetries(hinted, retries), ctx)

	var last *http.Response
	err := backoff.Retry(func() error {
		resp, err := c.attempt(ctx, req)
		if last != nil && resp != last {
			discard(last)
		}
		last = resp

		var status *StatusError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case errors.As(err, &status):
			hinted.hint = status.RetryAfter
		}
		return err
	}, policy)

	c.record(err)

	var status *StatusError
	if err != nil && errors.As(err, &status) && last != nil {
		return last, nil
	}
	if err != nil {
		if last != nil {
			discard(last)
		}
		return nil, err
	}
	return last, nil
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = body
		}
		resp, err := c.http.Do(clone)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return resp, &StatusError{StatusCode: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return resp, nil
	})
}

func (c *Client) record(err error) {
	if c.cfg.Registry == nil {
		return
	}
	if err != nil {
		c.cfg.Registry.RecordFailure(c.cfg.Name, err)
		return
	}
	c.cfg.Registry.RecordSuccess(c.cfg.Name)
}

// CircuitBreakerState returns the breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts returns the breaker counters for the current interval.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// StatusError is a retryable provider status: any 5xx, or 429.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return "provider responded " + strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// hintedBackOff waits at least as long as the provider's last Retry-After,
// capped at max.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
	max  time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if hint := min(b.hint, b.max); hint > next {
		next = hint
	}
	b.hint = 0
	return next
}

// parseRetryAfter reads the delay-seconds form; HTTP dates are ignored.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
