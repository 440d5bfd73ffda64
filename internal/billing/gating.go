package billing

import (
	"fmt"
	"time"

	"github.com/dietlyplans/dietly/internal/mealplan"
)

// FreePreviewDays is how many days of month 1 an unpaid user sees.
const FreePreviewDays = 3

// Locked describes what a tier withholds so clients can render a paywall.
type Locked struct {
	// Months lists month indexes whose days and groceries are withheld.
	Months []int `json:"months,omitempty"`

	// Month1FromDay is the first withheld day of month 1; zero when month 1 is complete.
	Month1FromDay int `json:"month1FromDay,omitempty"`

	// Groceries is true when no shopping list is exposed at all.
	Groceries bool `json:"groceries"`
}

// GatedPlan is a stored plan trimmed to what the tier may see.
type GatedPlan struct {
	ID        string               `json:"id"`
	Tier      Tier                 `json:"tier"`
	Plan      *mealplan.PlanResult `json:"plan"`
	Locked    Locked               `json:"locked"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// Gate applies the tier to a copy of the stored plan. The record is not modified.
// Locked months keep their phase name and calorie target.
func Gate(record *mealplan.PlanRecord, tier Tier) (*GatedPlan, error) {
	out := &GatedPlan{
		ID:        record.ID,
		Tier:      tier,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.Data == nil {
		return out, nil
	}

	plan, err := record.Data.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy plan: %w", err)
	}
	out.Plan = plan

	switch tier {
	case TierFull:
		return out, nil
	case TierOneMonth:
		lockMonths(&out.Locked, &plan.Roadmap.Month2, &plan.Roadmap.Month3)
	default:
		lockMonths(&out.Locked, &plan.Roadmap.Month2, &plan.Roadmap.Month3)
		m1 := &plan.Roadmap.Month1
		if len(m1.DailyPlan) > FreePreviewDays {
			m1.DailyPlan = m1.DailyPlan[:FreePreviewDays]
			out.Locked.Month1FromDay = FreePreviewDays + 1
		}
		m1.Groceries = mealplan.Groceries{}
		out.Locked.Groceries = true
	}
	return out, nil
}

func lockMonths(l *Locked, months ...*mealplan.MonthPlan) {
	for _, m := range months {
		m.DailyPlan = nil
		m.Groceries = mealplan.Groceries{}
		l.Months = append(l.Months, m.MonthIndex)
	}
}
