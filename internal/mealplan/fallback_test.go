package mealplan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

func TestSelectStaples(t *testing.T) {
	tests := []struct {
		name     string
		diet     string
		allergy  string
		meds     string
		flags    nutrition.Flags
		expected mealplan.Staples
	}{
		{
			name:     "default",
			diet:     "Standard Balanced",
			expected: mealplan.Staples{Protein: "Chicken Breast", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "vegan",
			diet:     "Vegan",
			expected: mealplan.Staples{Protein: "Tofu", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "vegan soy allergy",
			diet:     "Vegan",
			allergy:  "soy",
			expected: mealplan.Staples{Protein: "Lentils", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "keto",
			diet:     "Keto",
			expected: mealplan.Staples{Protein: "Chicken Breast", Carb: "Cauliflower Rice", Fat: "Avocado Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "renal",
			diet:     "Standard Balanced",
			flags:    nutrition.NewFlags(nutrition.ConditionRenal),
			expected: mealplan.Staples{Protein: "Egg Whites", Carb: "White Rice", Fat: "Olive Oil", Veg: "Green Beans"},
		},
		{
			name:     "renal egg allergy",
			diet:     "Standard Balanced",
			allergy:  "egg",
			flags:    nutrition.NewFlags(nutrition.ConditionRenal),
			expected: mealplan.Staples{Protein: "Chicken Breast", Carb: "White Rice", Fat: "Olive Oil", Veg: "Green Beans"},
		},
		{
			name:     "chicken allergy",
			diet:     "Standard Balanced",
			allergy:  "chicken",
			expected: mealplan.Staples{Protein: "White Fish", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "rice allergy",
			diet:     "Standard Balanced",
			allergy:  "rice",
			expected: mealplan.Staples{Protein: "Chicken Breast", Carb: "Quinoa", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "chicken and fish allergy",
			diet:     "Standard Balanced",
			allergy:  "chicken, fish",
			expected: mealplan.Staples{Protein: "Turkey Breast", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"},
		},
		{
			name:     "keto rice allergy keeps a safe carb",
			diet:     "Keto",
			allergy:  "rice",
			expected: mealplan.Staples{Protein: "Chicken Breast", Carb: "Zucchini Noodles", Fat: "Avocado Oil", Veg: "Steamed Broccoli"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			p.DietType = tt.diet
			p.Allergies = tt.allergy
			p.Medications = tt.meds
			assert.Equal(t, tt.expected, mealplan.SelectStaples(&p, tt.flags))
		})
	}
}

func TestSelectStaples_NeverReintroducesAllergen(t *testing.T) {
	allergies := []string{"chicken", "rice", "soy", "egg", "fish", "olive", "broccoli", "beans", "chicken, fish, turkey", "avocado"}
	diets := []string{"Standard Balanced", "Vegan", "Keto", "Vegetarian"}
	flagSets := []nutrition.Flags{nutrition.NewFlags(), nutrition.NewFlags(nutrition.ConditionRenal)}

	for _, allergy := range allergies {
		for _, diet := range diets {
			for _, flags := range flagSets {
				p := baseProfile()
				p.DietType = diet
				p.Allergies = allergy

				s := mealplan.SelectStaples(&p, flags)
				scanner := mealplan.NewAllergyScanner(allergy)
				for _, staple := range []string{s.Protein, s.Carb, s.Fat, s.Veg} {
					_, hit := scanner.Violation(staple)
					assert.False(t, hit, "%s diet with %q allergy selected %s", diet, allergy, staple)
				}
			}
		}
	}
}

func TestFallback(t *testing.T) {
	p := baseProfile()
	macros := nutrition.MacroSplit{Protein: 150, Carbs: 200, Fats: 67, Calories: 1800}

	d := mealplan.Fallback(&p, nutrition.NewFlags(), 2000, macros)

	assert.Equal(t, mealplan.FallbackSafetyVerification, d.SafetyVerification)
	assert.True(t, strings.HasPrefix(d.SafetyVerification, "FALLBACK PROTOCOL"))
	assert.Equal(t, "Consult Physician.", d.MedicationAnalysis)
	require.NotNil(t, d.ClimateAnalysis)
	assert.False(t, d.ClimateAnalysis.IsHot)
	assert.Equal(t, "Chicken Breast, Brown Rice, Steamed Broccoli", d.PantryTips)
	assert.Equal(t, mealplan.FallbackPhaseName, d.PhaseName)
	require.Len(t, d.ShoppingList, 1)
	assert.Equal(t, []string{"Chicken Breast", "Brown Rice", "Steamed Broccoli", "Olive Oil"}, d.ShoppingList[0].Items)

	require.Len(t, d.WeekTemplate, 7)
	day := d.WeekTemplate[0]
	assert.Equal(t, 500.0, day.Meals.Breakfast.Calories)
	assert.Equal(t, 700.0, day.Meals.Lunch.Calories)
	assert.Equal(t, 600.0, day.Meals.Dinner.Calories)
	require.NotNil(t, day.Meals.Snack)
	assert.Equal(t, 200.0, day.Meals.Snack.Calories)
	assert.Equal(t, mealplan.Macros{P: 38, C: 50, F: 17}, day.Meals.Breakfast.Macros)
	assert.Equal(t, 2000.0, day.DailyMacros.Calories)
	assert.Equal(t, 150.0, day.DailyMacros.Protein)

	for _, tmpl := range d.WeekTemplate[1:] {
		assert.Equal(t, day.Meals, tmpl.Meals)
	}
}

func TestFallback_PassesPhysicsCheck(t *testing.T) {
	p := baseProfile()
	d := mealplan.Fallback(&p, nutrition.NewFlags(), 1801, nutrition.MacroSplit{})

	month, err := mealplan.ExpandMonth(1, d, 1801, 2.9, true, "")
	require.NoError(t, err)
	assert.Equal(t, d.WeekTemplate[0].Meals.Lunch.Calories, month.DailyPlan[0].Meals.Lunch.Calories)
}
