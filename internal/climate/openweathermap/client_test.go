package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/climate"
	"github.com/dietlyplans/dietly/internal/climate/openweathermap"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

func newTestClient(url string) *openweathermap.Client {
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxRetries = 1
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "owm-key",
		BaseURL:    url,
		HTTPClient: resilience.NewClient(cfg),
	})
}

func TestClient_CurrentByRegion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Abu Dhabi", r.URL.Query().Get("q"))
		assert.Equal(t, "owm-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		response := map[string]interface{}{
			"weather": []map[string]interface{}{
				{"id": 800, "main": "Clear", "description": "clear sky"},
			},
			"main": map[string]float64{
				"temp":       36.4,
				"feels_like": 41.2,
				"humidity":   48,
			},
			"dt":   1772355600,
			"name": "Abu Dhabi",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	obs, err := newTestClient(server.URL).CurrentByRegion(context.Background(), "Abu Dhabi")
	require.NoError(t, err)

	assert.Equal(t, "Abu Dhabi", obs.Region)
	assert.Equal(t, 36.4, obs.Temperature)
	assert.Equal(t, 41.2, obs.FeelsLike)
	assert.Equal(t, climate.ConditionClear, obs.Condition)
	assert.Equal(t, "clear sky", obs.Description)
	assert.True(t, obs.IsHot())
}

func TestClient_CurrentByRegion_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "unknown city", status: http.StatusNotFound, body: `{"cod":"404","message":"city not found"}`, target: climate.ErrRegionNotFound},
		{name: "bad key", status: http.StatusUnauthorized, body: `{"cod":401}`, target: openweathermap.ErrInvalidAPIKey},
		{name: "bad request", status: http.StatusBadRequest, body: `{"cod":"400","message":"Nothing to geocode"}`},
		{name: "bad json", status: http.StatusOK, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).CurrentByRegion(context.Background(), "Atlantis")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestClient_ConditionCodes(t *testing.T) {
	tests := []struct {
		id   int
		want climate.Condition
	}{
		{211, climate.ConditionThunderstorm},
		{301, climate.ConditionDrizzle},
		{502, climate.ConditionRain},
		{601, climate.ConditionSnow},
		{701, climate.ConditionMist},
		{741, climate.ConditionFog},
		{761, climate.ConditionHaze},
		{800, climate.ConditionClear},
		{804, climate.ConditionClouds},
		{0, climate.ConditionUnknown},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"weather": []map[string]interface{}{{"id": tt.id, "description": "x"}},
					"main":    map[string]float64{"temp": 20},
				})
			}))
			defer server.Close()

			obs, err := newTestClient(server.URL).CurrentByRegion(context.Background(), "Lisbon")
			require.NoError(t, err)
			assert.Equal(t, tt.want, obs.Condition)
			assert.Equal(t, "Lisbon", obs.Region)
		})
	}
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, openweathermap.ProviderName, openweathermap.NewClient(openweathermap.ClientConfig{}).Name())
}
