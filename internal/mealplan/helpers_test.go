package mealplan_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func baseProfile() nutrition.Profile {
	return nutrition.Profile{
		Name:         "Dana",
		Age:          30,
		Gender:       nutrition.GenderFemale,
		HeightCm:     170,
		WeightKg:     70,
		Unit:         nutrition.UnitMetric,
		Activity:     nutrition.ActivityModerate,
		Goal:         nutrition.GoalLose,
		DietType:     "Standard Balanced",
		Cuisine:      "Mediterranean",
		BudgetAmount: 120,
		Currency:     "USD",
		Region:       "Dubai",
		MealStrategy: nutrition.StrategyFresh,
	}
}

func meal(name string, p, c, f float64, ingredients ...string) mealplan.Meal {
	return mealplan.Meal{
		Name:         name,
		Ingredients:  ingredients,
		Instructions: []string{"Prepare.", "Serve."},
		Calories:     p*4 + c*4 + f*9,
		Macros:       mealplan.Macros{P: p, C: c, F: f},
	}
}

func sampleDraft(month int, hot bool) *mealplan.Draft {
	d := &mealplan.Draft{
		PhaseName: fmt.Sprintf("Month %d Phase", month),
		ShoppingList: []mealplan.ShoppingCategory{
			{Category: "Protein", Items: []string{"600g Chicken Breast (Raw Weight)"}},
			{Category: "Produce", Items: []string{"5 Apples"}},
		},
	}
	if month == 1 {
		d.SafetyVerification = "Verified against medications."
		d.MedicationAnalysis = "No interactions."
		d.ClimateAnalysis = &mealplan.ClimateAnalysis{IsHot: hot, Advice: "Stay cool."}
		d.BudgetStrategy = "Buy in bulk."
		d.PantryTips = "Keep oats."
	}
	for i := 0; i < 7; i++ {
		snack := meal("Apple Slices", 1, 25, 0, "1 Apple (Raw Weight)")
		d.WeekTemplate = append(d.WeekTemplate, mealplan.DayTemplate{
			DayIndex: i,
			Meals: mealplan.Meals{
				Breakfast: meal(fmt.Sprintf("Oat Bowl %d", i), 20, 60, 10, "60g Oats (Raw Weight)", "200ml Milk"),
				Lunch:     meal(fmt.Sprintf("Chicken Salad %d", i), 40, 30, 15, "150g Chicken Breast (Raw Weight)"),
				Dinner:    meal(fmt.Sprintf("Salmon Plate %d", i), 35, 40, 20, "150g Salmon (Raw Weight)", "100g Rice (Cooked Weight)"),
				Snack:     &snack,
			},
			DailyMacros: nutrition.MacroSplit{Protein: 96, Carbs: 155, Fats: 45, Calories: 1800},
		})
	}
	return d
}

func draftJSON(t *testing.T, month int, hot bool) string {
	t.Helper()
	data, err := json.Marshal(sampleDraft(month, hot))
	require.NoError(t, err)
	return "```json\n" + string(data) + "\n```"
}

// reply is one scripted drafter response.
type reply struct {
	text string
	err  error
}

// mockDrafter replays scripted replies in order and records every request.
type mockDrafter struct {
	mu       sync.Mutex
	replies  []reply
	fallback reply
	requests []mealplan.DraftRequest
}

func (m *mockDrafter) Name() string { return "mock" }

func (m *mockDrafter) Draft(ctx context.Context, req mealplan.DraftRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.replies) == 0 {
		return m.fallback.text, m.fallback.err
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r.text, r.err
}

func (m *mockDrafter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockDrafter) months() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.requests))
	for i, r := range m.requests {
		out[i] = r.Month
	}
	return out
}

var errUnavailable = errors.New("drafting service unavailable")

func succeeding(t *testing.T, hot bool) *mockDrafter {
	return &mockDrafter{replies: []reply{
		{text: draftJSON(t, 1, hot)},
		{text: draftJSON(t, 2, false)},
		{text: draftJSON(t, 3, false)},
	}}
}
