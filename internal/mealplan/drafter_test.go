package mealplan_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/mealplan"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: `{"a":1}`, expected: `{"a":1}`},
		{name: "fenced", input: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "chatter around object", input: "Here is your plan: {\"a\":{\"b\":2}} Enjoy!", expected: `{"a":{"b":2}}`},
		{name: "no braces", input: "not json", expected: "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mealplan.CleanJSON(tt.input))
		})
	}
}

func TestParseDraft(t *testing.T) {
	d, err := mealplan.ParseDraft(draftJSON(t, 1, true), 1)
	require.NoError(t, err)
	assert.Len(t, d.WeekTemplate, 7)
	assert.True(t, d.ClimateAnalysis.IsHot)
	assert.Equal(t, "Month 1 Phase", d.PhaseName)
}

func TestParseDraft_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		month int
	}{
		{name: "not json", text: "the model is overloaded", month: 2},
		{name: "truncated", text: `{"phaseName":"x","weekTemplate":[`, month: 2},
		{name: "empty template", text: `{"phaseName":"x","weekTemplate":[],"shoppingList":[]}`, month: 2},
		{name: "missing meal", text: `{"phaseName":"x","weekTemplate":[{"dayIndex":0,"meals":{"breakfast":{"name":"a"},"lunch":{"name":"b"}}}]}`, month: 3},
		{name: "month one without safety narrative", text: "", month: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.text
			if text == "" {
				text = draftJSON(t, 2, false)
			}
			_, err := mealplan.ParseDraft(text, tt.month)
			require.ErrorIs(t, err, mealplan.ErrMalformedDraft)
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, mealplan.OutcomeSuccess, mealplan.Classify(nil))
	assert.Equal(t, mealplan.OutcomeRetryable, mealplan.Classify(errors.New("connection reset")))
	assert.Equal(t, mealplan.OutcomeFatal, mealplan.Classify(fmt.Errorf("gemini: %w", mealplan.ErrDraftRejected)))
	assert.Equal(t, "retryable", mealplan.OutcomeRetryable.String())
}

func TestSchemaFor(t *testing.T) {
	m1 := mealplan.SchemaFor(1)
	assert.Contains(t, m1.Required, "safetyVerification")
	assert.Contains(t, m1.Properties, "climateAnalysis")

	next := mealplan.SchemaFor(2)
	assert.ElementsMatch(t, []string{"phaseName", "weekTemplate", "shoppingList"}, next.Required)
	assert.NotContains(t, next.Properties, "safetyVerification")

	day := next.Properties["weekTemplate"].Items
	assert.Equal(t, mealplan.TypeObject, day.Type)
	assert.ElementsMatch(t, []string{"breakfast", "lunch", "dinner"}, day.Properties["meals"].Required)

	// each call returns an independent descriptor
	m1.Required = append(m1.Required, "mutated")
	assert.NotContains(t, mealplan.MonthOneSchema().Required, "mutated")
}
