package app_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/app"
	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

func TestNewGenerator_WithoutGeminiKey(t *testing.T) {
	gen, err := app.NewGenerator(context.Background(), app.GeneratorConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), nutrition.Profile{}, nil)
	assert.ErrorIs(t, err, mealplan.ErrDrafterNotConfigured)
}

func TestNewGenerator_RegistersProviders(t *testing.T) {
	registry := resilience.NewRegistry()

	_, err := app.NewGenerator(context.Background(), app.GeneratorConfig{
		GeminiAPIKey:         "test-key",
		OpenWeatherMapAPIKey: "owm-key",
		Registry:             registry,
		Logger:               zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"gemini", "openweathermap"}, registry.Names())
	assert.True(t, registry.Ready())
}

func TestNewRedis(t *testing.T) {
	client, err := app.NewRedis(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, client)

	_, err = app.NewRedis(context.Background(), "not a url")
	assert.Error(t, err)
}
