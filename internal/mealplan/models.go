// Package mealplan drafts, validates, expands and persists three-month meal plans.
package mealplan

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// Plan errors.
var (
	ErrPlanNotFound = errors.New("plan not found")

	// ErrDrafterNotConfigured is a configuration error: no drafting credentials were provided.
	ErrDrafterNotConfigured = errors.New("plan drafter not configured: missing API credentials")

	// ErrDraftRejected marks a drafting failure that retrying cannot fix.
	ErrDraftRejected = errors.New("draft rejected")

	// ErrMalformedDraft is returned when drafted output cannot be parsed or is structurally incomplete.
	ErrMalformedDraft = errors.New("malformed draft")

	ErrEmptyTemplate = errors.New("week template is empty")
)

// Macros are per-meal macronutrients in grams (sodium in mg).
type Macros struct {
	P      float64 `json:"p"`
	C      float64 `json:"c"`
	F      float64 `json:"f"`
	Fiber  float64 `json:"fiber,omitempty"`
	Sugar  float64 `json:"sugar,omitempty"`
	Sodium float64 `json:"sodium,omitempty"`
}

// Meal is one drafted meal. Warning is only ever set by the allergy watchdog.
type Meal struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Calories     float64  `json:"calories"`
	Macros       Macros   `json:"macros"`
	SideDish     string   `json:"sideDish,omitempty"`
	Warning      string   `json:"warning,omitempty"`
}

// Clone returns a deep copy of the meal.
func (m Meal) Clone() Meal {
	m.Ingredients = append([]string(nil), m.Ingredients...)
	m.Instructions = append([]string(nil), m.Instructions...)
	return m
}

// Meals holds the meals of one day. Snack is optional.
type Meals struct {
	Breakfast Meal  `json:"breakfast"`
	Lunch     Meal  `json:"lunch"`
	Dinner    Meal  `json:"dinner"`
	Snack     *Meal `json:"snack,omitempty"`
}

// Clone returns a deep copy of the day's meals.
func (m Meals) Clone() Meals {
	out := Meals{
		Breakfast: m.Breakfast.Clone(),
		Lunch:     m.Lunch.Clone(),
		Dinner:    m.Dinner.Clone(),
	}
	if m.Snack != nil {
		snack := m.Snack.Clone()
		out.Snack = &snack
	}
	return out
}

// each applies fn to every meal present.
func (m *Meals) each(fn func(*Meal)) {
	fn(&m.Breakfast)
	fn(&m.Lunch)
	fn(&m.Dinner)
	if m.Snack != nil {
		fn(m.Snack)
	}
}

// TotalCalories sums the calories of every meal present.
func (m Meals) TotalCalories() float64 {
	var total float64
	m.each(func(meal *Meal) { total += meal.Calories })
	return total
}

// DayTemplate is one day of a drafted 7-day template.
type DayTemplate struct {
	DayIndex    int                  `json:"dayIndex"`
	Meals       Meals                `json:"meals"`
	DailyMacros nutrition.MacroSplit `json:"dailyMacros"`
}

// ShoppingCategory groups shopping list items.
type ShoppingCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// ClimateAnalysis is the drafted assessment of the user's climate.
type ClimateAnalysis struct {
	IsHot  bool   `json:"isHot"`
	Advice string `json:"advice"`
}

// Draft is the structured output for one month phase. The narrative fields
// are only present in the month-1 draft.
type Draft struct {
	SafetyVerification string             `json:"safetyVerification,omitempty"`
	MedicationAnalysis string             `json:"medicationAnalysis,omitempty"`
	ClimateAnalysis    *ClimateAnalysis   `json:"climateAnalysis,omitempty"`
	BudgetStrategy     string             `json:"budgetStrategy,omitempty"`
	PantryTips         string             `json:"pantryTips,omitempty"`
	PhaseName          string             `json:"phaseName"`
	WeekTemplate       []DayTemplate      `json:"weekTemplate"`
	ShoppingList       []ShoppingCategory `json:"shoppingList"`
}

// DailyPlan is one expanded day of a month.
type DailyPlan struct {
	Day         int                  `json:"day"`
	Meals       Meals                `json:"meals"`
	DailyMacros nutrition.MacroSplit `json:"dailyMacros"`
	WaterTarget float64              `json:"waterTarget"`
}

// Groceries repeats the month's consolidated shopping list for each week.
type Groceries struct {
	Week1 []ShoppingCategory `json:"week1"`
	Week2 []ShoppingCategory `json:"week2"`
	Week3 []ShoppingCategory `json:"week3"`
	Week4 []ShoppingCategory `json:"week4"`
}

// MonthPlan is one 28-day phase of the roadmap.
type MonthPlan struct {
	MonthIndex     int         `json:"monthIndex"`
	PhaseName      string      `json:"phaseName"`
	TargetCalories int         `json:"targetCalories"`
	DailyPlan      []DailyPlan `json:"dailyPlan"`
	Groceries      Groceries   `json:"groceries"`
}

// Roadmap holds the three month phases.
type Roadmap struct {
	Month1 MonthPlan `json:"month1"`
	Month2 MonthPlan `json:"month2"`
	Month3 MonthPlan `json:"month3"`
}

// Months returns pointers to the three phases in order.
func (r *Roadmap) Months() []*MonthPlan {
	return []*MonthPlan{&r.Month1, &r.Month2, &r.Month3}
}

// UserStats is the resolved profile plus the computed metrics.
type UserStats struct {
	nutrition.Profile
	BMR               float64 `json:"bmr"`
	TDEE              float64 `json:"tdee"`
	BMI               float64 `json:"bmi"`
	WaterTargetLitres float64 `json:"waterTargetLitres"`
	NeedsElectrolytes bool    `json:"needsElectrolytes"`
}

// Mode records whether a plan came from the drafting collaborator or the fallback generator.
type Mode string

const (
	ModeDrafted  Mode = "drafted"
	ModeFallback Mode = "fallback"
)

// PlanResult is the complete generated plan. It is safe to persist verbatim.
type PlanResult struct {
	UserStats          UserStats             `json:"userStats"`
	SafetyVerification string                `json:"safetyVerification"`
	MedicationAnalysis string                `json:"medicationAnalysis,omitempty"`
	ClimateAnalysis    *ClimateAnalysis      `json:"climateAnalysis,omitempty"`
	BudgetStrategy     string                `json:"budgetStrategy,omitempty"`
	PantryTips         string                `json:"pantryTips,omitempty"`
	Roadmap            Roadmap               `json:"roadmap"`
	MetabolicLog       []string              `json:"metabolicLog"`
	Conditions         []nutrition.Condition `json:"conditions,omitempty"`
	Mode               Mode                  `json:"mode"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// Clone returns a deep copy via a JSON round trip.
func (p *PlanResult) Clone() (*PlanResult, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out PlanResult
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlanRecord is a persisted plan.
type PlanRecord struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Data      *PlanResult `json:"data"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// HistoryEntry summarizes one archived plan.
type HistoryEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Mode       Mode      `json:"mode"`
	PhaseNames []string  `json:"phaseNames"`
	CreatedAt  time.Time `json:"createdAt"`
}
