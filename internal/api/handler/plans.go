package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api/models"
	"github.com/dietlyplans/dietly/internal/api/response"
	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

// maxHistoryLimit caps GET /v1/plans/history?limit=.
const maxHistoryLimit = 100

// generationRetryAfter is the back-off suggested when generation cannot run right now.
const generationRetryAfter = 30 * time.Second

// PlanHandler handles plan generation and retrieval.
type PlanHandler struct {
	planner *mealplan.Planner
	billing *billing.Service
	logger  zerolog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planner *mealplan.Planner, billingService *billing.Service, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		planner: planner,
		billing: billingService,
		logger:  logger,
	}
}

// CreatePlan handles POST /v1/plans - synchronous generation.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var profile nutrition.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	progress := []string{}
	record, err := h.planner.CreatePlan(r.Context(), userID, profile, func(msg string) {
		progress = append(progress, msg)
	})
	if err != nil {
		writeGenerationError(w, r, h.logger, err)
		return
	}

	gated, err := h.gate(r.Context(), record)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to gate new plan")
		response.InternalError(w, r, "failed to load entitlement")
		return
	}

	response.Created(w, r, "/v1/plans/current", models.GeneratedPlan{GatedPlan: gated, Progress: progress})
}

// GetCurrentPlan handles GET /v1/plans/current.
func (h *PlanHandler) GetCurrentPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	record, err := h.planner.Current(r.Context(), userID)
	if err != nil {
		if errors.Is(err, mealplan.ErrPlanNotFound) {
			response.NotFound(w, r, "no plan has been generated yet")
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load current plan")
		response.InternalError(w, r, "failed to load plan")
		return
	}

	gated, err := h.gate(r.Context(), record)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to gate plan")
		response.InternalError(w, r, "failed to load entitlement")
		return
	}
	response.JSON(w, r, http.StatusOK, gated)
}

// ListHistory handles GET /v1/plans/history.
func (h *PlanHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var opts mealplan.HistoryOptions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxHistoryLimit {
			response.BadRequest(w, r, "limit must be between 1 and 100", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100", Code: "OUT_OF_RANGE"},
			})
			return
		}
		opts.Limit = limit
	}

	entries, err := h.planner.History(r.Context(), userID, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list plan history")
		response.InternalError(w, r, "failed to load plan history")
		return
	}
	if entries == nil {
		entries = []*mealplan.HistoryEntry{}
	}
	response.JSON(w, r, http.StatusOK, models.PlanHistory{Items: entries})
}

func (h *PlanHandler) gate(ctx context.Context, record *mealplan.PlanRecord) (*billing.GatedPlan, error) {
	ent, err := h.billing.Entitlement(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	return billing.Gate(record, ent.Effective())
}

// writeGenerationError maps generation failures to problems. Only the safety
// block and profile validation messages reach the client verbatim.
func writeGenerationError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, nutrition.ErrSafetyBlock):
		response.SafetyBlock(w, r, nutrition.ErrSafetyBlock.Error())
	case errors.Is(err, nutrition.ErrInvalidProfile):
		response.BadRequest(w, r, err.Error(), nil)
	case mealplan.IsConfigError(err):
		logger.Error().Err(err).Msg("plan generation not configured")
		response.ServiceUnavailable(w, r, "plan generation is not configured")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.Warn().Err(err).Msg("plan generation interrupted")
		response.ServiceUnavailableRetry(w, r, "plan generation timed out", generationRetryAfter)
	default:
		logger.Error().Err(err).Msg("plan generation failed")
		response.InternalError(w, r, "plan generation failed")
	}
}
