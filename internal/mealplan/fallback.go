package mealplan

import (
	"fmt"
	"math"
	"strings"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// Fallback narrative.
const (
	FallbackSafetyVerification = "FALLBACK PROTOCOL: AI Service Down. Generated Diet-Safe Emergency Plan."
	FallbackPhaseName          = "Safety Mode"
)

// Staples is the ingredient set a fallback day is built from.
type Staples struct {
	Protein string
	Carb    string
	Fat     string
	Veg     string
}

// Alternates tried, in order, when a staple still trips the allergy scanner.
var (
	animalProteins = []string{"Chicken Breast", "White Fish", "Turkey Breast", "Lean Beef", "Lentils"}
	plantProteins  = []string{"Tofu", "Lentils", "Chickpeas", "Tempeh"}
	carbStaples    = []string{"Brown Rice", "White Rice", "Quinoa", "Oats", "Sweet Potato"}
	ketoCarbs      = []string{"Cauliflower Rice", "Zucchini Noodles", "Spaghetti Squash"}
	fatStaples     = []string{"Olive Oil", "Avocado Oil", "Avocado"}
	vegStaples     = []string{"Steamed Broccoli", "Green Beans", "Zucchini", "Carrots"}
)

// SelectStaples narrows the default staples by diet type, medical flags and
// allergy text.
func SelectStaples(p *nutrition.Profile, flags nutrition.Flags) Staples {
	diet := strings.ToLower(p.DietType)
	sensitivities := strings.ToLower(p.Allergies + " " + p.Medications)

	s := Staples{Protein: "Chicken Breast", Carb: "Brown Rice", Fat: "Olive Oil", Veg: "Steamed Broccoli"}

	vegan := strings.Contains(diet, "vegan")
	plant := vegan || strings.Contains(diet, "vegetarian")
	keto := strings.Contains(diet, "keto")

	if plant {
		s.Protein = "Tofu"
		if strings.Contains(sensitivities, "soy") {
			s.Protein = "Lentils"
		}
	}
	if keto {
		s.Carb = "Cauliflower Rice"
		s.Fat = "Avocado Oil"
	}
	if flags.Renal() {
		// lower phosphorus and potassium
		if !vegan {
			s.Protein = "Egg Whites"
		}
		s.Carb = "White Rice"
		s.Veg = "Green Beans"
	}

	if strings.Contains(sensitivities, "chicken") && !plant {
		s.Protein = "White Fish"
	}
	if strings.Contains(sensitivities, "rice") && !keto {
		s.Carb = "Quinoa"
	}
	if strings.Contains(sensitivities, "egg") && s.Protein == "Egg Whites" {
		s.Protein = "Chicken Breast"
		if plant {
			s.Protein = "Tofu"
		}
	}

	scanner := NewAllergyScanner(p.Allergies)
	if scanner.Empty() {
		return s
	}
	proteins := animalProteins
	if plant {
		proteins = plantProteins
	}
	carbs := carbStaples
	if keto {
		carbs = ketoCarbs
	}
	s.Protein = firstSafe(scanner, s.Protein, proteins)
	s.Carb = firstSafe(scanner, s.Carb, carbs)
	s.Fat = firstSafe(scanner, s.Fat, fatStaples)
	s.Veg = firstSafe(scanner, s.Veg, vegStaples)
	return s
}

func firstSafe(scanner *AllergyScanner, current string, alternates []string) string {
	if _, hit := scanner.Violation(current); !hit {
		return current
	}
	for _, alt := range alternates {
		if _, hit := scanner.Violation(alt); !hit {
			return alt
		}
	}
	return current
}

// Fallback builds a deterministic week template from staple ingredients. It
// is used for all three months when drafting fails.
func Fallback(p *nutrition.Profile, flags nutrition.Flags, calories int, macros nutrition.MacroSplit) *Draft {
	s := SelectStaples(p, flags)
	cal := float64(calories)

	meal := func(name string, share float64) Meal {
		c := math.Round(cal * share)
		return Meal{
			Name:         name,
			Ingredients:  []string{s.Carb, s.Protein, s.Fat, s.Veg},
			Instructions: []string{"Cook simple ingredients.", "Season with herbs.", "Combine."},
			Calories:     c,
			Macros: Macros{
				P: math.Round(c * 0.3 / 4),
				C: math.Round(c * 0.4 / 4),
				F: math.Round(c * 0.3 / 9),
			},
		}
	}

	dailyMacros := macros
	dailyMacros.Calories = cal

	week := make([]DayTemplate, daysPerWeek)
	for i := range week {
		snack := meal("Safe Snack", 0.10)
		week[i] = DayTemplate{
			DayIndex: i,
			Meals: Meals{
				Breakfast: meal("Safe Start Bowl", 0.25),
				Lunch:     meal("Safe Power Lunch", 0.35),
				Dinner:    meal("Safe Light Dinner", 0.30),
				Snack:     &snack,
			},
			DailyMacros: dailyMacros,
		}
	}

	return &Draft{
		SafetyVerification: FallbackSafetyVerification,
		MedicationAnalysis: "Consult Physician.",
		ClimateAnalysis:    &ClimateAnalysis{IsHot: false, Advice: "Hydrate."},
		BudgetStrategy:     "Essentials Only.",
		PantryTips:         fmt.Sprintf("%s, %s, %s", s.Protein, s.Carb, s.Veg),
		PhaseName:          FallbackPhaseName,
		WeekTemplate:       week,
		ShoppingList: []ShoppingCategory{
			{Category: "Emergency Essentials", Items: []string{s.Protein, s.Carb, s.Veg, s.Fat}},
		},
	}
}
