// Package nutrition implements the physiological math, condition detection,
// macro allocation and calorie target resolution behind plan generation.
package nutrition

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Profile errors.
var (
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrSafetyBlock is returned when the profile must not receive a plan at all.
	ErrSafetyBlock = errors.New("SAFETY BLOCK: BMI < 16 indicates critical underweight status requiring medical supervision. Please consult a doctor immediately")
)

// Gender is the biological sex used by the energy equations.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// UnitSystem is the user's display unit preference.
type UnitSystem string

const (
	UnitMetric   UnitSystem = "metric"
	UnitImperial UnitSystem = "imperial"
)

// ActivityLevel describes how active the user is.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityLight     ActivityLevel = "light"
	ActivityModerate  ActivityLevel = "moderate"
	ActivityActive    ActivityLevel = "active"
	ActivityAthlete   ActivityLevel = "athlete"
)

// Goal is the user's weight goal.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// MealStrategy controls how meals are prepared across the week.
type MealStrategy string

const (
	StrategyFresh     MealStrategy = "fresh"
	StrategyLeftovers MealStrategy = "leftovers"
	StrategyBatch     MealStrategy = "batch"
)

// CookingSkill tunes recipe complexity.
type CookingSkill string

const (
	SkillMicrowave CookingSkill = "microwave"
	SkillBeginner  CookingSkill = "beginner"
	SkillAdvanced  CookingSkill = "advanced"
	SkillChef      CookingSkill = "chef"
)

// Profile is the intake form submitted by a user.
// Height is always stored in centimetres and weight in kilograms regardless of Unit.
type Profile struct {
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Age             int           `json:"age"`
	Gender          Gender        `json:"gender"`
	HeightCm        float64       `json:"height"`
	WeightKg        float64       `json:"weight"`
	Unit            UnitSystem    `json:"unit"`
	Activity        ActivityLevel `json:"activity"`
	Goal            Goal          `json:"goal"`
	DietType        string        `json:"dietType"`
	Cuisine         string        `json:"cuisine"`
	BudgetAmount    float64       `json:"budgetAmount"`
	Currency        string        `json:"currency"`
	Allergies       string        `json:"allergies"`
	Medications     string        `json:"medications"`
	Conditions      string        `json:"conditions,omitempty"`
	Region          string        `json:"region"`
	MealStrategy    MealStrategy  `json:"mealStrategy"`
	IncludeSnacks   bool          `json:"includeSnacks"`
	IsPregnant      bool          `json:"isPregnant"`
	IsBreastfeeding bool          `json:"isBreastfeeding"`
	BodyFatPct      *float64      `json:"bodyFat,omitempty"`
	LastPeriodStart *time.Time    `json:"lastPeriodStart,omitempty"`
	CookingSkill    CookingSkill  `json:"cookingSkill,omitempty"`
	IsThyroid       bool          `json:"isThyroid,omitempty"`
	IsRenal         bool          `json:"isRenal,omitempty"`
}

// Plausible human bounds.
const (
	minAge      = 1
	maxAge      = 120
	minHeightCm = 50
	maxHeightCm = 272
	minWeightKg = 2
	maxWeightKg = 650
	maxBodyFat  = 70
)

// Validate checks biometric bounds and enum fields.
func (p *Profile) Validate() error {
	var problems []string

	if p.Age < minAge || p.Age > maxAge {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", minAge, maxAge))
	}
	if p.HeightCm < minHeightCm || p.HeightCm > maxHeightCm {
		problems = append(problems, fmt.Sprintf("height must be between %d and %d cm", minHeightCm, maxHeightCm))
	}
	if p.WeightKg < minWeightKg || p.WeightKg > maxWeightKg {
		problems = append(problems, fmt.Sprintf("weight must be between %d and %d kg", minWeightKg, maxWeightKg))
	}
	if p.BodyFatPct != nil && (*p.BodyFatPct <= 0 || *p.BodyFatPct >= maxBodyFat) {
		problems = append(problems, fmt.Sprintf("body fat must be above 0 and below %d percent", maxBodyFat))
	}
	switch p.Gender {
	case GenderMale, GenderFemale:
	default:
		problems = append(problems, "gender must be male or female")
	}
	switch p.Goal {
	case GoalLose, GoalMaintain, GoalGain:
	default:
		problems = append(problems, "goal must be lose, maintain or gain")
	}
	switch p.MealStrategy {
	case StrategyFresh, StrategyLeftovers, StrategyBatch, "":
	default:
		problems = append(problems, "mealStrategy must be fresh, leftovers or batch")
	}
	if p.BudgetAmount < 0 {
		problems = append(problems, "budgetAmount must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}
	return nil
}

// ApplyDefaults fills optional enum fields left empty.
func (p *Profile) ApplyDefaults() {
	if p.Unit == "" {
		p.Unit = UnitMetric
	}
	if p.MealStrategy == "" {
		p.MealStrategy = StrategyFresh
	}
	if p.Activity == "" {
		p.Activity = ActivitySedentary
	}
}

var (
	injectionTokens = regexp.MustCompile(`(?i)system:|instructions:`)
	nameAllowed     = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
)

// SanitizeText strips braces, control characters and prompt-injection tokens.
func SanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		if unicode.IsControl(r) && r != ' ' {
			return ' '
		}
		return r
	}, s)
	return injectionTokens.ReplaceAllString(s, "")
}

// Sanitize returns a copy of the profile with free text cleaned before it reaches a prompt.
func (p Profile) Sanitize() Profile {
	p.Allergies = SanitizeText(p.Allergies)
	p.Medications = SanitizeText(p.Medications)
	p.Conditions = SanitizeText(p.Conditions)
	p.DietType = SanitizeText(p.DietType)
	p.Cuisine = SanitizeText(p.Cuisine)
	p.Region = SanitizeText(p.Region)
	p.Name = nameAllowed.ReplaceAllString(SanitizeText(p.Name), "")
	return p
}

// HealthText is the lowercase medications, allergies and conditions text scanned for conditions.
func (p *Profile) HealthText() string {
	return strings.ToLower(p.Medications + " " + p.Allergies + " " + p.Conditions)
}

// IsVegetarian reports whether the diet type is one of the plant-based baselines.
func (p *Profile) IsVegetarian() bool {
	return p.DietType == "Vegan" || p.DietType == "Vegetarian"
}

// CycleDay returns the number of whole days since the last period started.
// The boolean is false when no date is recorded.
func (p *Profile) CycleDay(now time.Time) (int, bool) {
	if p.LastPeriodStart == nil {
		return 0, false
	}
	return int(math.Floor(now.Sub(*p.LastPeriodStart).Hours() / 24)), true
}
