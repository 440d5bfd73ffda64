package dodo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/billing"
	"github.com/dietlyplans/dietly/internal/billing/dodo"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

func newTestClient(url string) *dodo.Client {
	return dodo.NewClient(dodo.ClientConfig{
		APIKey:     "test_key",
		BaseURL:    url,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
}

func TestClient_CreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout-sessions", r.URL.Path)
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{map[string]any{"product_id": "prod_3m", "quantity": float64(1)}}, body["product_cart"])
		assert.Equal(t, map[string]any{"email": "dana@example.com", "name": "Dana"}, body["customer"])
		assert.Equal(t, map[string]any{"user_id": "u1", "plan_type": "full"}, body["metadata"])
		assert.Equal(t, "https://app.example.com/?success=true", body["return_url"])
		assert.Equal(t, "AE", body["billing_country_code"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"session_id": "cs_1", "checkout_url": "https://pay.example/cs_1"})
	}))
	defer server.Close()

	link, err := newTestClient(server.URL).CreateCheckoutSession(context.Background(), billing.SessionRequest{
		ProductID:      "prod_3m",
		Email:          "dana@example.com",
		Name:           "Dana",
		BillingCountry: "AE",
		ReturnURL:      "https://app.example.com/?success=true",
		Metadata:       map[string]string{"user_id": "u1", "plan_type": "full"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", link)
}

func TestClient_CreateCheckoutSession_OmitsCountry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "billing_country_code")

		_ = json.NewEncoder(w).Encode(map[string]string{"payment_link": "https://pay.example/p", "url": "https://pay.example/u"})
	}))
	defer server.Close()

	link, err := newTestClient(server.URL).CreateCheckoutSession(context.Background(), billing.SessionRequest{ProductID: "p"})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/p", link, "payment_link wins over url")
}

func TestClient_CreateCheckoutSession_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		target  error
	}{
		{name: "api error with message", status: http.StatusUnprocessableEntity, body: `{"message":"product not found"}`, wantErr: "product not found"},
		{name: "api error without body", status: http.StatusUnauthorized, body: ``, wantErr: "unexpected status code: 401"},
		{name: "no link", status: http.StatusOK, body: `{"session_id":"cs_1"}`, target: dodo.ErrNoPaymentLink},
		{name: "bad json", status: http.StatusOK, body: `not json`, wantErr: "decoding response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).CreateCheckoutSession(context.Background(), billing.SessionRequest{ProductID: "p"})
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewClient_Environment(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"test_abc", dodo.TestBaseURL},
		{"abc.def", dodo.TestBaseURL},
		{"live_abc", dodo.LiveBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c := dodo.NewClient(dodo.ClientConfig{APIKey: tt.key})
			assert.Equal(t, tt.expected, c.BaseURL())
		})
	}
}
