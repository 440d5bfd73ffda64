// Package openweathermap looks up current conditions by place name.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/climate"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

const (
	ProviderName   = "openweathermap"
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ErrInvalidAPIKey is returned when the provider rejects the configured key.
var ErrInvalidAPIKey = errors.New("openweathermap: invalid api key")

// ClientConfig configures a Client. APIKey is required; a nil HTTPClient
// gets the default resilient client.
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *resilience.Client
	Logger     zerolog.Logger
}

// Client reads the current weather endpoint.
type Client struct {
	key    string
	base   string
	http   *resilience.Client
	logger zerolog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{key: cfg.APIKey, base: cfg.BaseURL, http: cfg.HTTPClient, logger: cfg.Logger}
	if c.base == "" {
		c.base = DefaultBaseURL
	}
	if c.http == nil {
		c.http = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}
	return c
}

func (c *Client) Name() string { return ProviderName }

// CurrentByRegion fetches current metric conditions for a city or region.
func (c *Client) CurrentByRegion(ctx context.Context, region string) (*climate.Observation, error) {
	endpoint := c.base + "/weather?" + url.Values{
		"q":     {region},
		"appid": {c.key},
		"units": {"metric"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather for %q: %w", region, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", climate.ErrRegionNotFound, region)
	case http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	default:
		return nil, fmt.Errorf("weather lookup failed with status %d: %s", resp.StatusCode, providerMessage(resp.Body))
	}

	var payload currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}

	obs := payload.observation(region)
	c.logger.Debug().
		Str("region", obs.Region).
		Float64("temperature", obs.Temperature).
		Str("condition", string(obs.Condition)).
		Msg("weather observation fetched")
	return obs, nil
}

// providerMessage extracts the "message" field of an error body, if any.
func providerMessage(body io.Reader) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4<<10)).Decode(&e); err != nil || e.Message == "" {
		return "no detail"
	}
	return e.Message
}

type currentWeather struct {
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

func (w *currentWeather) observation(region string) *climate.Observation {
	obs := &climate.Observation{
		Region:      region,
		Temperature: w.Main.Temp,
		FeelsLike:   w.Main.FeelsLike,
		Humidity:    w.Main.Humidity,
		Condition:   climate.ConditionUnknown,
		ObservedAt:  time.Unix(w.Dt, 0).UTC(),
	}
	if w.Name != "" {
		obs.Region = w.Name
	}
	if len(w.Weather) > 0 {
		obs.Condition = conditionForCode(w.Weather[0].ID)
		obs.Description = w.Weather[0].Description
	}
	return obs
}

// conditionForCode maps OpenWeatherMap condition codes, grouped by hundreds.
func conditionForCode(id int) climate.Condition {
	switch {
	case id == 800:
		return climate.ConditionClear
	case id > 800 && id < 900:
		return climate.ConditionClouds
	case id == 701:
		return climate.ConditionMist
	case id == 741:
		return climate.ConditionFog
	}
	switch id / 100 {
	case 2:
		return climate.ConditionThunderstorm
	case 3:
		return climate.ConditionDrizzle
	case 5:
		return climate.ConditionRain
	case 6:
		return climate.ConditionSnow
	case 7:
		return climate.ConditionHaze
	}
	return climate.ConditionUnknown
}
