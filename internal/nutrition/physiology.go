package nutrition

import "math"

// tdeeFactors maps activity level to the TDEE multiplier.
var tdeeFactors = map[ActivityLevel]float64{
	ActivitySedentary: 1.2,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityActive:    1.725,
	ActivityAthlete:   1.9,
}

// waterFactors maps activity level to the hydration multiplier.
var waterFactors = map[ActivityLevel]float64{
	ActivitySedentary: 1.0,
	ActivityLight:     1.1,
	ActivityModerate:  1.25,
	ActivityActive:    1.4,
	ActivityAthlete:   1.6,
}

const (
	// MaxBaseWaterLitres prevents hyponatremia risk before condition adjustments.
	MaxBaseWaterLitres = 4.5

	breastfeedingWaterLitres = 0.8
	geriatricAge             = 65
	pediatricAge             = 18
)

// BMRFormula names the equation used for basal metabolic rate.
type BMRFormula string

const (
	FormulaKatchMcArdle BMRFormula = "katch-mcardle"
	FormulaSchofield    BMRFormula = "schofield"
	FormulaMifflin      BMRFormula = "mifflin-st-jeor"
)

// BMRResult is a basal metabolic rate with the formula that produced it.
type BMRResult struct {
	Value    float64
	Formula  BMRFormula
	LeanMass float64
}

// ComputeBMR selects Katch-McArdle when body fat is known, Schofield for
// minors, and Mifflin-St Jeor otherwise.
func ComputeBMR(weightKg, heightCm float64, age int, gender Gender, bodyFatPct *float64) BMRResult {
	if bodyFatPct != nil && *bodyFatPct > 0 {
		lbm := weightKg * (1 - *bodyFatPct/100)
		return BMRResult{Value: 370 + 21.6*lbm, Formula: FormulaKatchMcArdle, LeanMass: lbm}
	}
	if age < pediatricAge {
		return BMRResult{Value: SchofieldBMR(weightKg, age, gender), Formula: FormulaSchofield}
	}
	return BMRResult{Value: MifflinBMR(weightKg, heightCm, age, gender), Formula: FormulaMifflin}
}

// MifflinBMR is the Mifflin-St Jeor equation, rounded, with a 5% upward
// correction above age 65.
func MifflinBMR(weightKg, heightCm float64, age int, gender Gender) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == GenderMale {
		base += 5
	} else {
		base -= 161
	}
	if age > geriatricAge {
		base *= 1.05
	}
	return math.Round(base)
}

// SchofieldBMR is the WHO Schofield equation for children and adolescents.
func SchofieldBMR(weightKg float64, age int, gender Gender) float64 {
	if gender == GenderMale {
		switch {
		case age < 3:
			return 60.9*weightKg - 54
		case age < 10:
			return 22.7*weightKg + 495
		default:
			return 17.5*weightKg + 651
		}
	}
	switch {
	case age < 3:
		return 61.0*weightKg - 51
	case age < 10:
		return 22.5*weightKg + 499
	default:
		return 12.2*weightKg + 746
	}
}

// ComputeTDEE multiplies BMR by the activity factor. Unknown levels count as sedentary.
func ComputeTDEE(bmr float64, activity ActivityLevel) float64 {
	factor, ok := tdeeFactors[activity]
	if !ok {
		factor = tdeeFactors[ActivitySedentary]
	}
	return math.Round(bmr * factor)
}

// ComputeBaseWater returns the daily water target in litres before diuretic,
// renal and climate adjustments.
func ComputeBaseWater(weightKg float64, activity ActivityLevel, isBreastfeeding bool, age int) float64 {
	var base float64
	if age < pediatricAge {
		// Holliday-Segar: 100 ml/kg, 50 ml/kg, 20 ml/kg bands
		switch {
		case weightKg <= 10:
			base = weightKg * 100
		case weightKg <= 20:
			base = 1000 + (weightKg-10)*50
		default:
			base = 1500 + (weightKg-20)*20
		}
		base /= 1000
	} else {
		base = weightKg * 0.033
	}

	factor, ok := waterFactors[activity]
	if !ok {
		factor = 1.0
	}
	base *= factor

	if isBreastfeeding {
		base += breastfeedingWaterLitres
	}

	return math.Min(Round1(base), MaxBaseWaterLitres)
}

// ComputeBMI returns weight / height² rounded to one decimal.
func ComputeBMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return Round1(weightKg / (m * m))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
