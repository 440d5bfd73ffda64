// Package climate provides current-weather hints for a user's region.
package climate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors.
var (
	ErrRegionRequired = errors.New("region is required")
	ErrRegionNotFound = errors.New("region not found")
	ErrDisabled       = errors.New("climate hints disabled")
)

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionRain         Condition = "rain"
	ConditionDrizzle      Condition = "drizzle"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionSnow         Condition = "snow"
	ConditionMist         Condition = "mist"
	ConditionFog          Condition = "fog"
	ConditionHaze         Condition = "haze"
	ConditionUnknown      Condition = "unknown"
)

// HotThresholdC is the feels-like temperature at which a region counts as hot.
const HotThresholdC = 30.0

// Observation is the current weather for a named region.
type Observation struct {
	Region      string    `json:"region"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    float64   `json:"humidity"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	ObservedAt  time.Time `json:"observedAt"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// IsHot reports whether the observation suggests extra hydration.
func (o *Observation) IsHot() bool {
	return o.FeelsLike >= HotThresholdC || o.Temperature >= HotThresholdC
}

// Hint renders the prompt line handed to the drafting collaborator.
func (o *Observation) Hint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s: %.0f°C (feels like %.0f°C), humidity %.0f%%", o.Region, o.Temperature, o.FeelsLike, o.Humidity)
	if o.Description != "" {
		fmt.Fprintf(&b, ", %s", o.Description)
	}
	b.WriteString(".")
	if o.IsHot() {
		b.WriteString(" Treat the climate as hot.")
	}
	return b.String()
}

// NormalizeRegion lowercases and collapses whitespace so equivalent names share a cache entry.
func NormalizeRegion(region string) string {
	return strings.Join(strings.Fields(strings.ToLower(region)), " ")
}
