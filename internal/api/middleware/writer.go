package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routePattern returns the matched chi pattern, e.g. "/v1/plans/jobs/{jobId}".
// Only meaningful once the router has dispatched the request.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// endpointGroup buckets a request path into the API area it belongs to.
func endpointGroup(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/plans/jobs"):
		return "jobs"
	case strings.HasPrefix(path, "/v1/plans"):
		return "plans"
	case strings.HasPrefix(path, "/v1/billing"):
		return "billing"
	case strings.HasPrefix(path, "/v1/admin"):
		return "admin"
	case strings.HasPrefix(path, "/v1/feature-flags"):
		return "flags"
	case strings.HasPrefix(path, "/v1/ops"):
		return "ops"
	default:
		return "other"
	}
}

// statusClass reduces a status code to "2xx", "4xx" and so on.
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
