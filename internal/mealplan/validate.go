package mealplan

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// physicsTolerance is the fraction of stated calories a meal may drift from
// its macros before the calorie label is rewritten.
const physicsTolerance = 0.15

// MacroCalories recomputes calories from macros, counting fiber at 2 kcal/g
// and only net carbohydrate at 4 kcal/g.
func MacroCalories(m Macros) float64 {
	netCarbs := math.Max(0, m.C-m.Fiber)
	return m.P*4 + m.F*9 + netCarbs*4 + m.Fiber*2
}

// CheckPhysics overwrites the calorie label when it differs from the
// macro-derived value by more than 15%. Macros are never altered.
func CheckPhysics(m Meal) Meal {
	computed := MacroCalories(m.Macros)
	if math.Abs(m.Calories-computed) > m.Calories*physicsTolerance {
		m.Calories = math.Round(computed)
	}
	return m
}

// hiddenAllergens maps an allergy to ingredient names that contain it.
var hiddenAllergens = map[string][]string{
	"gluten":    {"wheat", "rye", "barley", "malt", "seitan", "soy sauce", "bread", "pasta", "flour", "beer"},
	"dairy":     {"milk", "cheese", "yogurt", "butter", "cream", "whey", "casein", "ghee", "lactose"},
	"nut":       {"peanut", "almond", "cashew", "walnut", "pecan", "pistachio", "macadamia", "hazelnut"},
	"peanut":    {"satay", "arachis"},
	"egg":       {"albumin", "mayonnaise", "meringue"},
	"soy":       {"tofu", "tempeh", "edamame", "miso", "soya", "tamari"},
	"shellfish": {"shrimp", "crab", "lobster", "prawn", "mussel", "oyster", "clam", "scallop"},
	"seafood":   {"fish", "tuna", "salmon", "cod", "tilapia", "shrimp", "crab", "lobster"},
}

type allergenRule struct {
	token  string
	direct *regexp.Regexp
	hidden []hiddenTerm
}

type hiddenTerm struct {
	term    string
	pattern *regexp.Regexp
}

// AllergyScanner tags meals whose text mentions one of the user's allergies.
// Build one per allergy string and reuse it across meals.
type AllergyScanner struct {
	rules []allergenRule
}

// NewAllergyScanner tokenizes the allergy text on list separators and
// parentheses, trimming punctuation around each token. Text shorter than 3
// characters disables scanning.
func NewAllergyScanner(allergies string) *AllergyScanner {
	s := &AllergyScanner{}
	if len(strings.TrimSpace(allergies)) < 3 {
		return s
	}

	for _, raw := range strings.FieldsFunc(strings.ToLower(allergies), isAllergySeparator) {
		token := strings.TrimFunc(raw, notAlphanumeric)
		if len(token) <= 2 {
			continue
		}
		stem := singular(token)
		rule := allergenRule{token: token, direct: wordPattern(stem)}
		for _, term := range hiddenFor(stem) {
			rule.hidden = append(rule.hidden, hiddenTerm{term: term, pattern: wordPattern(term)})
		}
		s.rules = append(s.rules, rule)
	}
	return s
}

func isAllergySeparator(r rune) bool {
	switch r {
	case ',', ';', '(', ')', '/', '\n':
		return true
	}
	return false
}

func notAlphanumeric(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Empty reports whether the scanner has nothing to look for.
func (s *AllergyScanner) Empty() bool {
	return len(s.rules) == 0
}

// Scan returns the meal with Warning set on the first violation found.
func (s *AllergyScanner) Scan(m Meal) Meal {
	if warning, ok := s.Violation(scanText(m)); ok {
		m.Warning = warning
	}
	return m
}

// Violation reports the first allergen found in text.
func (s *AllergyScanner) Violation(text string) (string, bool) {
	text = strings.ToLower(text)
	for _, rule := range s.rules {
		if rule.direct.MatchString(text) {
			return fmt.Sprintf("CRITICAL WARNING: Contains '%s' detected in meal text.", rule.token), true
		}
		for _, h := range rule.hidden {
			if h.pattern.MatchString(text) {
				return fmt.Sprintf("CRITICAL WARNING: Contains '%s' (Hidden %s source).", h.term, rule.token), true
			}
		}
	}
	return "", false
}

// RunWatchdog scans a single meal against an allergy string.
func RunWatchdog(m Meal, allergies string) Meal {
	return NewAllergyScanner(allergies).Scan(m)
}

func scanText(m Meal) string {
	return strings.Join([]string{
		m.Name,
		m.Description,
		strings.Join(m.Ingredients, " "),
		strings.Join(m.Instructions, " "),
		m.SideDish,
		m.Warning,
	}, " ")
}

// wordPattern matches the word or its plural on word boundaries.
func wordPattern(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `(?:e?s)?\b`)
}

func singular(token string) string {
	switch {
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "oes") && len(token) > 5:
		return strings.TrimSuffix(token, "es")
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return strings.TrimSuffix(token, "s")
	default:
		return token
	}
}

// hiddenFor looks up hidden sources by the allergy stem, then by its last word
// so that "tree nuts" resolves to "nut".
func hiddenFor(stem string) []string {
	if terms, ok := hiddenAllergens[stem]; ok {
		return terms
	}
	fields := strings.Fields(stem)
	if len(fields) > 1 {
		return hiddenAllergens[fields[len(fields)-1]]
	}
	return nil
}
