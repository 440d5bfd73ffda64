package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123")
	assert.Empty(t, p.Detail)
	assert.Nil(t, p.Errors)

	p.WithDetail("age must be between 13 and 120").
		WithInstance("/v1/plans/jobs").
		WithErrors([]models.FieldError{
			{Field: "age", Message: "must be between 13 and 120", Code: "OUT_OF_RANGE"},
			{Field: "weight", Message: "required", Code: "REQUIRED"},
		})

	assert.Equal(t, "age must be between 13 and 120", p.Detail)
	assert.Equal(t, "/v1/plans/jobs", p.Instance)
	require.Len(t, p.Errors, 2)
	assert.Equal(t, "OUT_OF_RANGE", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "gender", Message: "must be male or female"},
	}).WithInstance("/v1/plans")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))
	assert.Empty(t, w.Header().Get("Retry-After"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, "invalid input", result.Detail)
	assert.Equal(t, "/v1/plans", result.Instance)
	assert.Equal(t, "req_test123", result.TraceID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "gender", result.Errors[0].Field)
}

func TestProblem_WriteRetryAfter(t *testing.T) {
	tests := []struct {
		after    time.Duration
		expected string
	}{
		{30 * time.Second, "30"},
		{1500 * time.Millisecond, "2"},
		{0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.after.String(), func(t *testing.T) {
			w := httptest.NewRecorder()
			models.NewServiceUnavailable("req_1", "generation queue unavailable").WithRetryAfter(tt.after).Write(w)

			assert.Equal(t, tt.expected, w.Header().Get("Retry-After"))
			assert.NotContains(t, w.Body.String(), "RetryAfter")
		})
	}
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name    string
		problem *models.Problem
		typ     string
		title   string
		status  int
	}{
		{"unauthorized", models.NewUnauthorized("req_123", "d"), models.ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized},
		{"forbidden", models.NewForbidden("req_123", "d"), models.ProblemTypeForbidden, "Forbidden", http.StatusForbidden},
		{"not found", models.NewNotFound("req_123", "d"), models.ProblemTypeNotFound, "Not found", http.StatusNotFound},
		{"safety block", models.NewSafetyBlock("req_123", "d"), models.ProblemTypeSafetyBlock, "Plan generation blocked", http.StatusUnprocessableEntity},
		{"media type", models.NewUnsupportedMediaType("req_123", "d"), models.ProblemTypeMediaType, "Unsupported media type", http.StatusUnsupportedMediaType},
		{"rate limited", models.NewTooManyRequests("req_123", "d"), models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests},
		{"internal", models.NewInternalError("req_123", "d"), models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("req_123", "d"), models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable},
		{"bad request", models.NewBadRequest("req_123", "d", nil), models.ProblemTypeValidation, "Validation error", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, tt.title, tt.problem.Title)
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "req_123", tt.problem.TraceID)
		})
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	ts := models.Timestamp(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01T09:30:00Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	var null models.Timestamp
	require.NoError(t, json.Unmarshal([]byte("null"), &null))
	assert.True(t, null.Time().IsZero())
}

func TestHealthStatus_Worse(t *testing.T) {
	ok, degraded, fail := models.HealthStatusOK, models.HealthStatusDegraded, models.HealthStatusFail

	assert.Equal(t, degraded, ok.Worse(degraded))
	assert.Equal(t, fail, fail.Worse(degraded))
	assert.Equal(t, fail, degraded.Worse(fail))
	assert.Equal(t, ok, ok.Worse(ok))
}

func TestTimestampPtr(t *testing.T) {
	assert.Nil(t, models.TimestampPtr(nil))

	now := time.Date(2026, 10, 15, 8, 0, 0, 500, time.FixedZone("CEST", 2*3600))
	data, err := json.Marshal(models.TimestampPtr(&now))
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-15T06:00:00Z"`, string(data))
}
