package mealplan

import "fmt"

const (
	weeksPerMonth = 4
	daysPerWeek   = 7
)

// ExpandMonth tiles a drafted week template across a 28-day month. Every day
// is a deep copy; the snack is dropped when snacks are disabled; each meal
// runs through the physics check and then the allergy watchdog.
func ExpandMonth(index int, draft *Draft, targetCalories int, water float64, includeSnacks bool, allergies string) (MonthPlan, error) {
	if draft == nil || len(draft.WeekTemplate) == 0 {
		return MonthPlan{}, fmt.Errorf("month %d: %w", index, ErrEmptyTemplate)
	}

	scanner := NewAllergyScanner(allergies)
	days := make([]DailyPlan, 0, weeksPerMonth*daysPerWeek)

	for week := 0; week < weeksPerMonth; week++ {
		for d := 0; d < daysPerWeek; d++ {
			tmpl := draft.WeekTemplate[0]
			if d < len(draft.WeekTemplate) {
				tmpl = draft.WeekTemplate[d]
			}

			meals := tmpl.Meals.Clone()
			if !includeSnacks {
				meals.Snack = nil
			}

			meals.each(func(m *Meal) {
				// drafted warnings are discarded; only the watchdog sets them
				m.Warning = ""
				*m = CheckPhysics(*m)
			})
			meals.each(func(m *Meal) {
				*m = scanner.Scan(*m)
			})

			macros := tmpl.DailyMacros
			macros.Calories = meals.TotalCalories()

			days = append(days, DailyPlan{
				Day:         week*daysPerWeek + d + 1,
				Meals:       meals,
				DailyMacros: macros,
				WaterTarget: water,
			})
		}
	}

	phase := draft.PhaseName
	if phase == "" {
		phase = fmt.Sprintf("Phase %d", index)
	}

	return MonthPlan{
		MonthIndex:     index,
		PhaseName:      phase,
		TargetCalories: targetCalories,
		DailyPlan:      days,
		Groceries: Groceries{
			Week1: cloneShopping(draft.ShoppingList),
			Week2: cloneShopping(draft.ShoppingList),
			Week3: cloneShopping(draft.ShoppingList),
			Week4: cloneShopping(draft.ShoppingList),
		},
	}, nil
}

func cloneShopping(list []ShoppingCategory) []ShoppingCategory {
	out := make([]ShoppingCategory, len(list))
	for i, c := range list {
		out[i] = ShoppingCategory{Category: c.Category, Items: append([]string(nil), c.Items...)}
	}
	return out
}
