package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/api/models"
	"github.com/dietlyplans/dietly/internal/api/response"
	"github.com/dietlyplans/dietly/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{service: service, logger: logger}
}

// GetFeatureFlags handles GET /v1/feature-flags - evaluated switch values.
func (h *FeatureFlagsHandler) GetFeatureFlags(w http.ResponseWriter, r *http.Request) {
	all := h.service.All(r.Context())

	values := make(map[string]bool, len(all))
	for _, flag := range all {
		values[flag.Key] = flag.Enabled
	}
	response.JSON(w, r, http.StatusOK, models.FeatureFlags{Flags: values})
}

// ListFeatureFlags handles GET /v1/admin/flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.FlagList{Flags: h.service.All(r.Context())})
}

// UpsertFeatureFlags handles PUT /v1/admin/flags. The batch is rejected
// whole when any key is missing, repeated or unknown.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input models.FlagsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Flags) == 0 {
		response.BadRequest(w, r, "flags must not be empty", nil)
		return
	}

	var fieldErrs []models.FieldError
	seen := make(map[string]bool, len(input.Flags))
	for i, u := range input.Flags {
		field := fmt.Sprintf("flags[%d].key", i)
		switch _, err := featureflags.Lookup(u.Key); {
		case u.Key == "":
			fieldErrs = append(fieldErrs, models.FieldError{Field: field, Message: "required", Code: "REQUIRED"})
		case err != nil:
			fieldErrs = append(fieldErrs, models.FieldError{Field: field, Message: "unknown feature flag", Code: "UNKNOWN_FLAG"})
		case seen[u.Key]:
			fieldErrs = append(fieldErrs, models.FieldError{Field: field, Message: "repeated in this request", Code: "DUPLICATE"})
		}
		seen[u.Key] = true
	}
	if len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid flag update", fieldErrs)
		return
	}

	actor := middleware.GetUserID(r.Context())
	updated, err := h.service.SetFlags(r.Context(), input.Flags, actor)
	if err != nil {
		h.logger.Error().Err(err).Str("admin_id", actor).Msg("failed to update feature flags")
		response.InternalError(w, r, "failed to update feature flags")
		return
	}
	response.JSON(w, r, http.StatusOK, models.FlagList{Flags: updated})
}

// ResetFeatureFlag handles DELETE /v1/admin/flags/{key} - revert to the default.
func (h *FeatureFlagsHandler) ResetFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	err := h.service.ResetFlag(r.Context(), key)
	switch {
	case err == nil:
		h.logger.Info().Str("admin_id", middleware.GetUserID(r.Context())).Str("flag", key).Msg("feature flag reset")
		response.NoContent(w, r)
	case errors.Is(err, featureflags.ErrUnknownFlag):
		response.NotFound(w, r, "unknown feature flag")
	case errors.Is(err, featureflags.ErrFlagNotFound):
		response.NotFound(w, r, "flag has no stored override")
	default:
		h.logger.Error().Err(err).Str("flag", key).Msg("failed to reset feature flag")
		response.InternalError(w, r, "failed to reset feature flag")
	}
}

// InvalidateCache handles POST /v1/admin/flags/invalidate.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
