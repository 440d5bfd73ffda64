package handler

import (
	"net/http"

	"github.com/dietlyplans/dietly/internal/api/middleware"
	"github.com/dietlyplans/dietly/internal/api/response"
)

// callerID returns the authenticated user for r. When the route was mounted
// without auth it writes 401 and reports false, so plans are never stored
// under an empty owner.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return "", false
	}
	return userID, true
}
