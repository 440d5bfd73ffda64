package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dietlyplans/dietly/internal/api/middleware"
)

func TestContentTypeJSON_DefaultsAndDefers(t *testing.T) {
	plain := middleware.ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	plain.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/plans/current", http.NoBody))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	problem := middleware.ContentTypeJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
	}))
	w = httptest.NewRecorder()
	problem.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/plans/current", http.NoBody))
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		status      int
	}{
		{name: "json", method: http.MethodPost, contentType: "application/json", body: `{}`, status: http.StatusOK},
		{name: "json with charset", method: http.MethodPut, contentType: "application/json; charset=utf-8", body: `{}`, status: http.StatusOK},
		{name: "form post", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "age=30", status: http.StatusUnsupportedMediaType},
		{name: "plain text", method: http.MethodPatch, contentType: "text/plain", body: "hello", status: http.StatusUnsupportedMediaType},
		{name: "garbage header", method: http.MethodPost, contentType: ";;", body: "{}", status: http.StatusUnsupportedMediaType},
		{name: "no content type", method: http.MethodPost, contentType: "", body: `{}`, status: http.StatusOK},
		{name: "empty body", method: http.MethodPost, contentType: "text/plain", body: "", status: http.StatusOK},
		{name: "get ignored", method: http.MethodGet, contentType: "text/plain", body: "x", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/v1/plans", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnsupportedMediaType {
				assert.Contains(t, w.Body.String(), "unsupported-media-type")
			}
		})
	}
}
