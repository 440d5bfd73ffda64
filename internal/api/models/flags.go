package models

import (
	"github.com/dietlyplans/dietly/internal/featureflags"
)

// FeatureFlags is the client view: switch key to current value.
type FeatureFlags struct {
	Flags map[string]bool `json:"flags"`
}

// FlagsUpdateRequest is the body of PUT /v1/admin/flags.
type FlagsUpdateRequest struct {
	Flags []featureflags.FlagUpdate `json:"flags"`
}

// FlagList is the admin view, with defaults and override authorship.
type FlagList struct {
	Flags []featureflags.Flag `json:"flags"`
}
