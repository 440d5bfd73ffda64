package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/dietlyplans/dietly/internal/telemetry"
)

func TestInit_DisabledStillPropagates(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "dietly-api", Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_ShutdownEmpty(t *testing.T) {
	assert.NoError(t, (&telemetry.Provider{}).Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	tests := []struct {
		name   string
		ratio  float64
		parent trace.SpanContext
		want   sdktrace.SamplingDecision
	}{
		{name: "always", ratio: 1, want: sdktrace.RecordAndSample},
		{name: "never for new roots", ratio: 0, want: sdktrace.Drop},
		{
			name:  "sampled parent wins",
			ratio: 0,
			parent: trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     trace.SpanID{1},
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			}),
			want: sdktrace.RecordAndSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := trace.ContextWithRemoteSpanContext(context.Background(), tt.parent)
			result := telemetry.Sampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: ctx,
				TraceID:       traceID,
				Name:          "POST /v1/plans",
			})
			assert.Equal(t, tt.want, result.Decision)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		enabled  string
		endpoint string
		want     bool
		wantAddr string
	}{
		{name: "nothing set", want: false},
		{name: "endpoint only", endpoint: "collector:4317", want: true, wantAddr: "collector:4317"},
		{name: "explicitly enabled", enabled: "true", want: true, wantAddr: "localhost:4317"},
		{name: "explicitly disabled", enabled: "false", endpoint: "collector:4317", want: false, wantAddr: "collector:4317"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_ENABLED", tt.enabled)
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.endpoint)
			t.Setenv("OTEL_SERVICE_NAME", "")

			cfg := telemetry.ConfigFromEnv("dietly-api", "1.0.0", "test")
			assert.Equal(t, tt.want, cfg.Enabled)
			assert.Equal(t, tt.wantAddr, cfg.OTLPEndpoint)
			assert.Equal(t, "dietly-api", cfg.ServiceName)
		})
	}
}

func TestConfigFromEnv_Tuning(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "dietly-worker-eu")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "60000")

	cfg := telemetry.ConfigFromEnv("dietly-worker", "1.0.0", "production")
	assert.Equal(t, "dietly-worker-eu", cfg.ServiceName)
	assert.False(t, cfg.Insecure)
	assert.InDelta(t, 0.25, cfg.SampleRatio, 1e-9)
	assert.Equal(t, time.Minute, cfg.ExportInterval)

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "2")
	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "-5")
	cfg = telemetry.ConfigFromEnv("dietly-worker", "1.0.0", "production")
	assert.InDelta(t, 1.0, cfg.SampleRatio, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.ExportInterval)
}
