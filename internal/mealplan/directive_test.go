package mealplan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dietlyplans/dietly/internal/mealplan"
	"github.com/dietlyplans/dietly/internal/nutrition"
)

func directiveInput(p nutrition.Profile) mealplan.DirectiveInput {
	return mealplan.DirectiveInput{
		Profile:  &p,
		Flags:    nutrition.DetectProfileConditions(&p),
		Calories: 1801,
		Macros:   nutrition.MacroSplit{Protein: 135, Fats: 60, Carbs: 180},
		Month:    1,
		Now:      fixedNow,
	}
}

func TestComposeDirective_Header(t *testing.T) {
	out := mealplan.ComposeDirective(directiveInput(baseProfile()))

	assert.True(t, strings.HasPrefix(out, "ACT AS: Michelin Nutritionist & Clinical Dietitian."))
	assert.Contains(t, out, "DAILY CALORIES: 1801 kcal")
	assert.Contains(t, out, "MACRO TARGETS: Protein 135g | Fats 60g | Carbs 180g")
	assert.Contains(t, out, "DIET: Standard Balanced | CUISINE: Mediterranean")
	assert.Contains(t, out, "ALLERGIES: None | MEDICATIONS: None")
	assert.Contains(t, out, "REGION: Dubai | BUDGET: 120 USD")
	assert.Contains(t, out, "STRATEGY: fresh | SNACKS: false")
	assert.Contains(t, out, "UNIT SYSTEM: METRIC (STRICTLY GRAMS/ML. NO CUPS/OUNCES)")
	assert.NotContains(t, out, "CLIMATE:")
	assert.True(t, strings.HasSuffix(out, "\nGenerate MONTH 1 (Week 1 Template)."))
}

func TestComposeDirective_FormattingRulesAlwaysPresent(t *testing.T) {
	profiles := []func(p *nutrition.Profile){
		func(*nutrition.Profile) {},
		func(p *nutrition.Profile) { p.Conditions = "ckd stage 3, gout"; p.Age = 70 },
		func(p *nutrition.Profile) { p.DietType = "Vegan"; p.Unit = nutrition.UnitImperial },
	}

	for _, mutate := range profiles {
		p := baseProfile()
		mutate(&p)
		out := mealplan.ComposeDirective(directiveInput(p))

		assert.Contains(t, out, "1. CONSOLIDATE SHOPPING LIST")
		assert.Contains(t, out, `2. PHYSICS COMPLIANCE: You MUST label every ingredient with "(Raw Weight)" or "(Cooked Weight)"`)
		assert.Contains(t, out, "3. SKILL ADAPTION: User has skill level 'beginner'.")
		assert.Contains(t, out, "4. SAFETY - BIOAVAILABILITY")
		assert.Contains(t, out, "5. SAFETY - TOXICOLOGY: Limit High-Mercury Fish")
		assert.Contains(t, out, "- MICRONUTRIENT CHECKSUM")
	}
}

func TestComposeDirective_Deterministic(t *testing.T) {
	p := baseProfile()
	p.Medications = "warfarin, lithium"
	p.Conditions = "ibs"
	in := directiveInput(p)
	assert.Equal(t, mealplan.ComposeDirective(in), mealplan.ComposeDirective(in))
}

func TestSafetyDirectives(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *nutrition.Profile)
		contains []string
		excludes []string
	}{
		{
			name:     "healthy adult has no clauses",
			mutate:   func(*nutrition.Profile) {},
			excludes: []string{"CRITICAL", "RENAL", "GERIATRIC"},
		},
		{
			name:     "drug interactions",
			mutate:   func(p *nutrition.Profile) { p.Medications = "Coumadin, Lipitor, Nardil" },
			contains: []string{"PATIENT ON WARFARIN", "PATIENT ON STATINS", "PATIENT ON MAOIs"},
		},
		{
			name:     "renal suppresses geriatric",
			mutate:   func(p *nutrition.Profile) { p.Age = 72; p.Conditions = "dialysis" },
			contains: []string{"CRITICAL RENAL DIET"},
			excludes: []string{"GERIATRIC PROTECTION"},
		},
		{
			name:     "geriatric without renal",
			mutate:   func(p *nutrition.Profile) { p.Age = 72 },
			contains: []string{"GERIATRIC PROTECTION (SARCOPENIA)"},
		},
		{
			name:     "vegan with ibs",
			mutate:   func(p *nutrition.Profile) { p.DietType = "Vegan"; p.Conditions = "irritable bowel" },
			contains: []string{"STRICT LOW FODMAP", "CONFLICT DETECTED (VEGAN + IBS)"},
		},
		{
			name: "menstrual phase",
			mutate: func(p *nutrition.Profile) {
				start := fixedNow.AddDate(0, 0, -2)
				p.LastPeriodStart = &start
			},
			contains: []string{"MENSTRUAL PHASE (DAYS 1-5)"},
		},
		{
			name:     "bariatric",
			mutate:   func(p *nutrition.Profile) { p.Conditions = "gastric sleeve" },
			contains: []string{"BARIATRIC SURGERY DETECTED"},
			excludes: []string{"IMPOSSIBLE PHYSICS WARNING"},
		},
		{
			name:     "pregnancy",
			mutate:   func(p *nutrition.Profile) { p.IsPregnant = true },
			contains: []string{"PREGNANCY SAFETY"},
		},
		{
			name:     "low budget keto",
			mutate:   func(p *nutrition.Profile) { p.DietType = "Keto"; p.BudgetAmount = 40 },
			contains: []string{"ECONOMIC ENGINEERING"},
		},
		{
			name:     "batch cooking",
			mutate:   func(p *nutrition.Profile) { p.MealStrategy = nutrition.StrategyBatch },
			contains: []string{"BATCH COOKING MODE"},
		},
		{
			name:     "leftovers",
			mutate:   func(p *nutrition.Profile) { p.MealStrategy = nutrition.StrategyLeftovers },
			contains: []string{"LEFTOVER STRATEGY ACTIVE"},
		},
		{
			name:     "night shift in medications",
			mutate:   func(p *nutrition.Profile) { p.Medications = "melatonin for night shift" },
			contains: []string{"CHRONOBIOLOGY: SHIFT WORKER", "CIRCADIAN RHYTHM DISRUPTION"},
		},
		{
			name:     "rare conditions",
			mutate:   func(p *nutrition.Profile) { p.Conditions = "celiac, pku, g6pd, hypertension" },
			contains: []string{"HYPERTENSION PROTOCOL (DASH)", "CELIAC DISEASE DETECTED", "PKU (PHENYLKETONURIA)", "G6PD DEFICIENCY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(&p)
			joined := strings.Join(mealplan.SafetyDirectives(directiveInput(p)), " ")
			for _, c := range tt.contains {
				assert.Contains(t, joined, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, joined, e)
			}
		})
	}
}

func TestSafetyDirectives_BariatricHighCalories(t *testing.T) {
	p := baseProfile()
	p.Conditions = "bariatric"
	in := directiveInput(p)
	in.Calories = 2400

	assert.Contains(t, strings.Join(mealplan.SafetyDirectives(in), " "), "LIQUID PROTEIN SHAKES *BETWEEN* MEALS")
}

func TestComposeDirective_AdvisoriesAndClimate(t *testing.T) {
	p := baseProfile()
	p.DietType = "Vegan"
	p.Medications = "doxycycline"
	p.CookingSkill = nutrition.SkillChef
	in := directiveInput(p)
	in.Month = 3
	in.ClimateHint = "Currently 41°C in Dubai."

	out := mealplan.ComposeDirective(in)
	assert.Contains(t, out, "- VEGAN ESSENTIAL: Supplement Vitamin B12 daily.")
	assert.Contains(t, out, "- MEDICATION SAFETY: SEPARATE DAIRY/CALCIUM FROM ANTIBIOTICS BY 2 HOURS.")
	assert.Contains(t, out, "MICROBIOME RESTORATION")
	assert.Contains(t, out, "CLIMATE: Currently 41°C in Dubai.")
	assert.Contains(t, out, "skill level 'chef'")
	assert.True(t, strings.HasSuffix(out, "Generate MONTH 3 (Week 1 Template)."))
}
