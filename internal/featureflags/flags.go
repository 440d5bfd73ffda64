// Package featureflags provides the runtime switches operators flip without a
// deploy: drafting kill switch, queued generation, checkout and climate hints.
package featureflags

import (
	"errors"
	"fmt"
	"time"
)

// Flag keys.
const (
	// FlagForceFallback skips the drafting collaborator and serves the
	// deterministic safety plan to everyone.
	FlagForceFallback = "force_fallback"

	// FlagAsyncGeneration enables the queued generation endpoint.
	FlagAsyncGeneration = "async_generation"

	// FlagCheckoutEnabled enables checkout session creation.
	FlagCheckoutEnabled = "checkout_enabled"

	// FlagClimateHints adds the current-temperature line to drafting prompts.
	FlagClimateHints = "climate_hints"
)

// ErrUnknownFlag is returned for keys outside the catalog.
var ErrUnknownFlag = errors.New("unknown feature flag")

// Definition describes a switch and its value when no override is stored.
type Definition struct {
	Key         string
	Description string
	Default     bool
}

var catalog = []Definition{
	{Key: FlagAsyncGeneration, Description: "Accept queued plan generation on /v1/plans/jobs", Default: true},
	{Key: FlagCheckoutEnabled, Description: "Allow checkout session creation", Default: true},
	{Key: FlagClimateHints, Description: "Add current temperature to drafting prompts", Default: true},
	{Key: FlagForceFallback, Description: "Serve the deterministic fallback plan instead of drafting", Default: false},
}

// Catalog returns every known switch, ordered by key.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition for key.
func Lookup(key string) (Definition, error) {
	for _, d := range catalog {
		if d.Key == key {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownFlag, key)
}

// Override is a stored value replacing a switch's default.
type Override struct {
	Key       string
	Enabled   bool
	UpdatedAt time.Time
	UpdatedBy string
}

// Flag is the evaluated state of one switch.
type Flag struct {
	Key         string     `json:"key"`
	Description string     `json:"description"`
	Enabled     bool       `json:"enabled"`
	Default     bool       `json:"default"`
	Overridden  bool       `json:"overridden"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
}

func evaluate(d Definition, o *Override) Flag {
	f := Flag{Key: d.Key, Description: d.Description, Enabled: d.Default, Default: d.Default}
	if o != nil {
		at := o.UpdatedAt
		f.Enabled = o.Enabled
		f.Overridden = true
		f.UpdatedAt = &at
		f.UpdatedBy = o.UpdatedBy
	}
	return f
}

// FlagUpdate sets one switch.
type FlagUpdate struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}
