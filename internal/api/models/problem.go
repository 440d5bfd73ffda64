package models

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Problem is an RFC 7807 error document, served as application/problem+json.
type Problem struct {
	// Type is a URI identifying the problem class.
	Type string `json:"type"`

	Title  string `json:"title"`
	Status int    `json:"status"`

	// Detail explains this occurrence. Never carries profile health data.
	Detail string `json:"detail,omitempty"`

	// Instance is the request path that failed.
	Instance string `json:"instance,omitempty"`

	// TraceID echoes X-Request-Id for support lookups.
	TraceID string `json:"traceId"`

	Errors []FieldError `json:"errors,omitempty"`

	// RetryAfter, when positive, is sent as the Retry-After header.
	RetryAfter time.Duration `json:"-"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs.
const (
	ProblemTypeValidation      = "https://api.dietlyplans.com/problems/validation-error"
	ProblemTypeUnauthorized    = "https://api.dietlyplans.com/problems/unauthorized"
	ProblemTypeForbidden       = "https://api.dietlyplans.com/problems/forbidden"
	ProblemTypeNotFound        = "https://api.dietlyplans.com/problems/not-found"
	ProblemTypeSafetyBlock     = "https://api.dietlyplans.com/problems/safety-block"
	ProblemTypeMediaType       = "https://api.dietlyplans.com/problems/unsupported-media-type"
	ProblemTypeTLSRequired     = "https://api.dietlyplans.com/problems/tls-required"
	ProblemTypeTooManyRequests = "https://api.dietlyplans.com/problems/too-many-requests"
	ProblemTypeInternal        = "https://api.dietlyplans.com/problems/internal-error"
	ProblemTypeUnavailable     = "https://api.dietlyplans.com/problems/service-unavailable"
)

// NewProblem creates a new Problem with the given parameters.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets Detail and returns p.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets Instance and returns p.
func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

// WithErrors sets the field errors and returns p.
func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// WithRetryAfter sets the Retry-After hint and returns p.
func (p *Problem) WithRetryAfter(d time.Duration) *Problem {
	p.RetryAfter = d
	return p
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-Id", p.TraceID)
	if p.RetryAfter > 0 {
		secs := int64((p.RetryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 validation problem.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).
		WithDetail(detail).
		WithErrors(errors)
}

// NewUnauthorized creates a 401 problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID).WithDetail(detail)
}

// NewForbidden creates a 403 problem.
func NewForbidden(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeForbidden, "Forbidden", http.StatusForbidden, traceID).WithDetail(detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).WithDetail(detail)
}

// NewSafetyBlock creates a 422 problem for profiles the planner refuses to serve.
func NewSafetyBlock(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeSafetyBlock, "Plan generation blocked", http.StatusUnprocessableEntity, traceID).WithDetail(detail)
}

// NewUnsupportedMediaType creates a 415 problem for non-JSON request bodies.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeMediaType, "Unsupported media type", http.StatusUnsupportedMediaType, traceID).WithDetail(detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).WithDetail(detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}
