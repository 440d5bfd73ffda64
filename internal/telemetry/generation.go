package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GenerationRecorder records plan generation metrics.
type GenerationRecorder struct {
	attempts  metric.Int64Counter
	plans     metric.Int64Counter
	durations metric.Float64Histogram
}

// NewGenerationRecorder creates the instruments on meter.
func NewGenerationRecorder(meter metric.Meter) (*GenerationRecorder, error) {
	attempts, err := meter.Int64Counter(
		"dietly.plan.draft_attempts",
		metric.WithDescription("Drafting attempts per month phase by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	plans, err := meter.Int64Counter(
		"dietly.plan.generated",
		metric.WithDescription("Plans generated by mode"),
		metric.WithUnit("{plan}"),
	)
	if err != nil {
		return nil, err
	}

	durations, err := meter.Float64Histogram(
		"dietly.plan.generation.duration",
		metric.WithDescription("End-to-end plan generation time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationRecorder{attempts: attempts, plans: plans, durations: durations}, nil
}

// RecordDraftAttempt counts one drafting attempt.
func (r *GenerationRecorder) RecordDraftAttempt(ctx context.Context, month int, outcome string) {
	r.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("month", strconv.Itoa(month)),
		attribute.String("outcome", outcome),
	))
}

// RecordGeneration counts a finished plan and its duration.
func (r *GenerationRecorder) RecordGeneration(ctx context.Context, mode string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	r.plans.Add(ctx, 1, attrs)
	r.durations.Record(ctx, duration.Seconds(), attrs)
}
