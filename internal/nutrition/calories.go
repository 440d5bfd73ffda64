package nutrition

import (
	"fmt"
	"math"
	"time"
)

const (
	lutealBufferKcal       = 250
	renalWaterCapLitres    = 1.5
	diureticWaterFactor    = 1.2
	underweightBMI         = 18.5
	criticalUnderweightBMI = 16
	bariatricSnackKcal     = 2000
)

// Metabolics are the per-request baseline numbers derived from a profile.
type Metabolics struct {
	BMR float64
	// TDEE includes the luteal-phase buffer when one applies.
	TDEE        float64
	BMI         float64
	CycleBuffer float64
	// BaseWater is the hydration target after the diuretic multiplier and renal cap.
	BaseWater float64
	Formula   BMRFormula
}

// FloorFor returns the absolute minimum daily calories for a weight-loss goal.
func FloorFor(g Gender) int {
	if g == GenderMale {
		return 1500
	}
	return 1200
}

// ComputeMetabolics derives BMR, TDEE, BMI and base water for a profile,
// recording every non-default decision in the journal.
func ComputeMetabolics(p *Profile, flags Flags, now time.Time, j *Journal) Metabolics {
	res := ComputeBMR(p.WeightKg, p.HeightCm, p.Age, p.Gender, p.BodyFatPct)
	bmr := res.Value
	if res.Formula == FormulaKatchMcArdle {
		j.Record(fmt.Sprintf("Biometrics: Using Katch-McArdle Formula (LBM: %.1fkg)", res.LeanMass))
	}

	if NeedsThyroidBMRCorrection(p) {
		bmr = math.Round(bmr * 0.95)
		j.Record("Medical Adjustment: -5% BMR reduction applied for Thyroid condition context.")
	}

	tdee := ComputeTDEE(bmr, p.Activity)

	waterFactor := 1.0
	if flags.Has(ConditionDiuretic) {
		waterFactor = diureticWaterFactor
		j.Record("Chemical Balance: Diuretic usage detected (Caffeine/Meds). Increasing Hydration Target by 20%.")
	}
	water := ComputeBaseWater(p.WeightKg, p.Activity, p.IsBreastfeeding, p.Age) * waterFactor

	var buffer float64
	if day, ok := p.CycleDay(now); ok && day >= 14 && day <= 28 {
		buffer = lutealBufferKcal
		j.Record(fmt.Sprintf("Biological Cycle: Luteal Phase detected (Day %d). Adding +250kcal buffer to prevent hunger crashes.", day))
	}

	if flags.Renal() {
		water = math.Min(water, renalWaterCapLitres)
		j.Record("CRITICAL SAFETY: Renal Condition detected. Hard-capping fluid intake to 1.5L.")
	}

	return Metabolics{
		BMR:         bmr,
		TDEE:        tdee + buffer,
		BMI:         ComputeBMI(p.WeightKg, p.HeightCm),
		CycleBuffer: buffer,
		BaseWater:   water,
		Formula:     res.Formula,
	}
}

// IsMenstrualPhase reports whether the last period started 0 to 5 days ago.
func IsMenstrualPhase(p *Profile, now time.Time) bool {
	day, ok := p.CycleDay(now)
	return ok && day >= 0 && day <= 5
}

// Resolution is the month-1 calorie decision.
type Resolution struct {
	Calories int
	// EffectiveGoal is the goal after population overrides.
	EffectiveGoal Goal
	// HoldTarget is true when months 2 and 3 must reuse the month-1 target.
	HoldTarget bool
	// NoSurplus keeps months 2 and 3 at projected TDEE for underweight profiles.
	NoSurplus bool
}

// ResolveTarget turns TDEE into a safe month-1 calorie target. The first
// matching population rule wins. It returns ErrSafetyBlock for BMI < 16.
// For bariatric profiles above 2000 kcal it switches IncludeSnacks on.
func ResolveTarget(p *Profile, m Metabolics, flags Flags, j *Journal) (Resolution, error) {
	tdee := m.TDEE
	res := Resolution{Calories: int(tdee), EffectiveGoal: p.Goal}

	switch {
	case p.Age < pediatricAge:
		res.HoldTarget = true
		switch p.Goal {
		case GoalLose:
			res.EffectiveGoal = GoalMaintain
			j.Record("Safety Alert: Pediatric User (<18). Overriding 'Lose' goal to 'Maintain' to protect growth.")
		case GoalGain:
			res.Calories = int(math.Round(tdee * 1.10))
		}

	case p.IsPregnant:
		res.HoldTarget = true
		switch p.Goal {
		case GoalGain:
			res.Calories = int(math.Round(tdee + 300))
		case GoalLose:
			res.EffectiveGoal = GoalMaintain
			j.Record("Notice: Pregnancy detected. Overriding 'Lose' goal to 'Maintain'.")
		}

	case p.IsBreastfeeding:
		res.HoldTarget = true
		res.Calories = int(tdee + 500)
		j.Record("Medical Notice: Lactation detected. Adding +500kcal/day for milk supply.")

	case m.BMI < underweightBMI:
		if m.BMI < criticalUnderweightBMI {
			return Resolution{}, ErrSafetyBlock
		}
		res.EffectiveGoal = GoalMaintain
		res.NoSurplus = true
		j.Progress("Medical Notice: Underweight. Setting Safe Maintenance Target (No Surplus) to prevent Refeeding Syndrome.")

	default:
		switch p.Goal {
		case GoalLose:
			res.Calories = max(int(math.Round(tdee*0.80)), FloorFor(p.Gender))
		case GoalGain:
			res.Calories = int(math.Round(tdee * 1.10))
		}
	}

	if flags.Bariatric() && res.Calories > bariatricSnackKcal && !p.IncludeSnacks {
		p.IncludeSnacks = true
		j.Record("Medical Override: Bariatric Status + High Calories detected. Forcing 'Snacks' to spread food volume and prevent Dumping Syndrome.")
	}

	return res, nil
}

// phaseProjection describes the adaptive thermogenesis model for one month.
type phaseProjection struct {
	weightFactor float64
	loseFactor   float64
	gainFactor   float64
}

var phaseProjections = map[int]phaseProjection{
	2: {weightFactor: 0.985, loseFactor: 0.95, gainFactor: 1.05},
	3: {weightFactor: 0.97, loseFactor: 0.90, gainFactor: 1.10},
}

// PhaseTarget returns the calorie target for month 1, 2 or 3. Months 2 and 3
// recompute BMR and TDEE against a projected body weight; lose steps down and
// every other goal steps up, except underweight profiles which stay at TDEE.
func PhaseTarget(month int, p *Profile, m Metabolics, r Resolution) int {
	proj, ok := phaseProjections[month]
	if !ok || r.HoldTarget {
		return r.Calories
	}

	bmr := MifflinBMR(p.WeightKg*proj.weightFactor, p.HeightCm, p.Age, p.Gender)
	tdee := ComputeTDEE(bmr, p.Activity) + m.CycleBuffer

	switch {
	case r.EffectiveGoal == GoalLose:
		return max(int(math.Round(tdee*proj.loseFactor)), FloorFor(p.Gender))
	case r.NoSurplus:
		return int(tdee)
	default:
		return int(math.Round(tdee * proj.gainFactor))
	}
}
