package middleware

import (
	"net/http"

	"github.com/dietlyplans/dietly/internal/api/models"
)

// RequireAdmin allows only the listed user IDs through. It must run after Auth.
// An empty list rejects everyone.
func RequireAdmin(adminIDs []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[GetUserID(r.Context())]; !ok {
				problem := models.NewForbidden(GetRequestID(r.Context()), "admin access required")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
