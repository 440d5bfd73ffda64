package nutrition

import (
	"math"
	"strings"
)

// Energy density in kcal per gram.
const (
	KcalPerGramProtein = 4
	KcalPerGramFat     = 9
	KcalPerGramCarb    = 4
)

// Split is a protein/fat/carb allocation of calories as fractions.
type Split struct {
	Protein float64 `json:"protein"`
	Fat     float64 `json:"fat"`
	Carb    float64 `json:"carb"`
}

// Sum returns the total of the three fractions.
func (s Split) Sum() float64 {
	return s.Protein + s.Fat + s.Carb
}

// Normalize rescales the fractions to sum to exactly 1.0.
func (s Split) Normalize() Split {
	total := s.Sum()
	if total <= 0 {
		return balancedSplit
	}
	return Split{Protein: s.Protein / total, Fat: s.Fat / total, Carb: s.Carb / total}
}

// MacroSplit is a daily macro target in grams.
type MacroSplit struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar,omitempty"`
	Sodium   float64 `json:"sodium,omitempty"`
	Calories float64 `json:"calories"`
}

var balancedSplit = Split{Protein: 0.30, Fat: 0.30, Carb: 0.40}

// dietBaselines are matched case-insensitively against the diet type.
var dietBaselines = map[string]Split{
	"keto":         {Protein: 0.25, Fat: 0.70, Carb: 0.05},
	"low carb":     {Protein: 0.40, Fat: 0.40, Carb: 0.20},
	"high protein": {Protein: 0.45, Fat: 0.25, Carb: 0.30},
	"vegan":        {Protein: 0.25, Fat: 0.25, Carb: 0.50},
	"vegetarian":   {Protein: 0.25, Fat: 0.25, Carb: 0.50},
}

// BaselineSplit returns the starting split for a diet type.
func BaselineSplit(dietType string) Split {
	if s, ok := dietBaselines[strings.ToLower(strings.TrimSpace(dietType))]; ok {
		return s
	}
	return balancedSplit
}

func isPlantBased(dietType string) bool {
	d := strings.ToLower(strings.TrimSpace(dietType))
	return d == "vegan" || d == "vegetarian"
}

// BioavailabilityBoost raises protein by 10% relative, taking the deficit
// equally from fat and carb.
func BioavailabilityBoost(s Split) Split {
	boost := s.Protein * 0.10
	s.Protein += boost
	s.Fat -= boost / 2
	s.Carb -= boost / 2
	return s
}

type overrideRule struct {
	condition Condition
	// blockedBy lists conditions whose presence skips this rule.
	blockedBy []Condition
	apply     func(Split) Split
}

// overridePrecedence is evaluated in order; later rules may trim earlier ones.
var overridePrecedence = []overrideRule{
	{condition: ConditionGallbladder, apply: capFat},
	{condition: ConditionRenal, apply: renalProtein},
	{condition: ConditionGeriatric, blockedBy: []Condition{ConditionRenal}, apply: geriatricProtein},
	{condition: ConditionDiabetic, apply: capCarb},
	{condition: ConditionGLP1, blockedBy: []Condition{ConditionRenal}, apply: glp1Protein},
}

func capFat(s Split) Split {
	if s.Fat > 0.40 {
		excess := s.Fat - 0.40
		s.Fat = 0.40
		s.Protein += excess * 0.5
		s.Carb += excess * 0.5
	}
	return s
}

func renalProtein(s Split) Split {
	s.Protein = math.Min(s.Protein, 0.15)
	s.Carb = math.Max(s.Carb, 0.35)
	s.Fat = 1.0 - (s.Protein + s.Carb)
	return s
}

func geriatricProtein(s Split) Split {
	s.Protein = 0.25
	if s.Sum() > 1.0 {
		s.Carb = 1.0 - (s.Protein + s.Fat)
	}
	return s
}

func capCarb(s Split) Split {
	if s.Carb > 0.35 {
		excess := s.Carb - 0.35
		s.Carb = 0.35
		s.Protein += excess * 0.6
		s.Fat += excess * 0.4
	}
	return s
}

func glp1Protein(s Split) Split {
	s.Protein = math.Max(s.Protein, 0.40)
	if s.Sum() > 1.0 {
		rest := 1.0 - s.Protein
		s.Fat = rest * 0.5
		s.Carb = rest * 0.5
	}
	return s
}

// ApplyOverride applies the medical override rule for one condition,
// regardless of which other conditions are present.
func ApplyOverride(s Split, c Condition) Split {
	for _, rule := range overridePrecedence {
		if rule.condition == c {
			return rule.apply(s)
		}
	}
	return s
}

// Allocation is the outcome of macro allocation for one calorie target.
type Allocation struct {
	Split  Split
	Macros MacroSplit
	// Skipped lists override rules that were triggered but blocked by a
	// higher-priority condition.
	Skipped []Condition
}

// AllocateMacros computes a macro split for a calorie target: diet baseline,
// bioavailability correction, medical overrides in precedence order, then
// normalization and gram conversion.
func AllocateMacros(calories int, dietType string, gender Gender, flags Flags) Allocation {
	split := BaselineSplit(dietType)
	if isPlantBased(dietType) {
		split = BioavailabilityBoost(split)
	}

	var skipped []Condition
	for _, rule := range overridePrecedence {
		if !flags.Has(rule.condition) {
			continue
		}
		if blocked(flags, rule.blockedBy) {
			skipped = append(skipped, rule.condition)
			continue
		}
		split = rule.apply(split)
	}

	split = split.Normalize()

	cal := float64(calories)
	fiber := 25.0
	if gender == GenderMale {
		fiber += 10
	}

	return Allocation{
		Split: split,
		Macros: MacroSplit{
			Protein:  math.Round(cal * split.Protein / KcalPerGramProtein),
			Fats:     math.Round(cal * split.Fat / KcalPerGramFat),
			Carbs:    math.Round(cal * split.Carb / KcalPerGramCarb),
			Fiber:    fiber,
			Sugar:    25,
			Calories: cal,
		},
		Skipped: skipped,
	}
}

func blocked(flags Flags, by []Condition) bool {
	for _, c := range by {
		if flags.Has(c) {
			return true
		}
	}
	return false
}
