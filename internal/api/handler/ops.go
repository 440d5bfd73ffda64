// Package handler provides HTTP handlers for the DietlyPlans API.
package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dietlyplans/dietly/internal/api/models"
	"github.com/dietlyplans/dietly/internal/api/response"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

// readinessTimeout bounds each subsystem check.
const readinessTimeout = 2 * time.Second

// degradedFeatureByProvider names the user-facing fallback in effect while a
// provider's circuit is open.
var degradedFeatureByProvider = map[string]string{
	"gemini":         "fallback_plans_only",
	"openweathermap": "climate_hints_off",
	"dodo":           "checkout_unavailable",
}

// CheckFunc reports whether a backing subsystem is reachable.
type CheckFunc func(ctx context.Context) error

// OpsConfig holds configuration for the ops handler.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry supplies circuit breaker state for external providers.
	Registry *resilience.Registry

	// Checks are subsystem probes keyed by name, e.g. "postgres" or "redis".
	Checks map[string]CheckFunc
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	checks    map[string]CheckFunc
	now       func() time.Time
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		registry:  cfg.Registry,
		checks:    cfg.Checks,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// A failing subsystem makes the service unready; an open provider circuit only
// degrades it.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.systemStatus(r.Context())

	code := http.StatusOK
	if status.Status == models.HealthStatusFail {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, r, code, status)
}

func (h *OpsHandler) systemStatus(ctx context.Context) models.SystemStatus {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Version:    h.version,
		Time:       models.Timestamp(h.now()),
		Subsystems: []models.SubsystemStatus{},
		Providers:  []models.ProviderStatus{},
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
		start := time.Now()
		err := h.checks[name](checkCtx)
		elapsed := time.Since(start)
		cancel()

		sub := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK, LatencyMs: elapsed.Milliseconds()}
		if err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			status.Status = models.HealthStatusFail
		}
		status.Subsystems = append(status.Subsystems, sub)
	}

	if h.registry == nil {
		return status
	}
	for _, ph := range h.registry.Snapshot() {
		ps := models.ProviderStatus{
			Provider:            ph.Name,
			Status:              models.HealthStatusOK,
			CircuitState:        ph.CircuitState.String(),
			ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
		}
		ps.LastSuccessAt = models.TimestampPtr(ph.LastSuccessAt)
		ps.LastFailureAt = models.TimestampPtr(ph.LastFailureAt)
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}

		switch {
		case ph.IsUnhealthy():
			ps.Status = models.HealthStatusFail
			status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, ph.Name+"_circuit_open")
			if flag, ok := degradedFeatureByProvider[ph.Name]; ok {
				status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, flag)
			}
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		}
		if ps.Status != models.HealthStatusOK {
			status.Status = status.Status.Worse(models.HealthStatusDegraded)
		}
		status.Providers = append(status.Providers, ps)
	}
	return status
}
