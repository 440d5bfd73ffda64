package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/api/models"
	"github.com/dietlyplans/dietly/internal/api/response"
	"github.com/dietlyplans/dietly/internal/featureflags"
	"github.com/dietlyplans/dietly/internal/jobs"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

// JobHandler handles asynchronous generation jobs.
type JobHandler struct {
	jobs   *jobs.Service
	flags  *featureflags.Service
	logger zerolog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *jobs.Service, flags *featureflags.Service, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobService,
		flags:  flags,
		logger: logger,
	}
}

// CreateJob handles POST /v1/plans/jobs - queue a generation.
func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil || !h.flags.IsAsyncGenerationEnabled(r.Context()) {
		response.ServiceUnavailable(w, r, "asynchronous generation is disabled")
		return
	}

	var profile nutrition.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	profile.ApplyDefaults()
	if err := profile.Validate(); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	job, err := h.jobs.Enqueue(r.Context(), userID, profile)
	if err != nil {
		if errors.Is(err, jobs.ErrQueueUnavailable) {
			h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to queue generation")
			response.ServiceUnavailableRetry(w, r, "generation queue unavailable", generationRetryAfter)
			return
		}
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create job")
		response.InternalError(w, r, "failed to create job")
		return
	}

	response.Accepted(w, r, "/v1/plans/jobs/"+job.ID, models.JobAccepted{JobID: job.ID, Status: job.Status})
}

// GetJob handles GET /v1/plans/jobs/{jobId}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		response.BadRequest(w, r, "jobId is required", nil)
		return
	}
	if h.jobs == nil {
		response.NotFound(w, r, "job not found")
		return
	}

	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	job, err := h.jobs.Get(r.Context(), userID, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			response.NotFound(w, r, "job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("failed to load job")
		response.InternalError(w, r, "failed to load job")
		return
	}
	response.JSON(w, r, http.StatusOK, job)
}
