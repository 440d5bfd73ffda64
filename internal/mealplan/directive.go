package mealplan

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

// DirectiveInput is everything the composer reads for one month phase.
type DirectiveInput struct {
	Profile  *nutrition.Profile
	Flags    nutrition.Flags
	Calories int
	Macros   nutrition.MacroSplit
	Month    int
	Now      time.Time
	// ClimateHint is an optional observed-weather line for the region.
	ClimateHint string
}

type clause struct {
	when func(in DirectiveInput) bool
	text string
}

var (
	expensiveDiet = regexp.MustCompile(`(?i)keto|paleo|steak`)
	shiftTiming   = regexp.MustCompile(`(?i)shift|night|graveyard|rotation`)
)

const lowBudgetThreshold = 60

func has(c nutrition.Condition) func(DirectiveInput) bool {
	return func(in DirectiveInput) bool { return in.Flags.Has(c) }
}

func isVegan(p *nutrition.Profile) bool {
	return strings.Contains(strings.ToLower(p.DietType), "vegan")
}

// safetyClauses are evaluated in order; each true predicate appends its text.
var safetyClauses = []clause{
	{has(nutrition.ConditionWarfarin), "CRITICAL WARNING: PATIENT ON WARFARIN. NO GRAPEFRUIT, CRANBERRY, or DRASTIC VITAMIN K FLUCTUATIONS."},
	{has(nutrition.ConditionStatin), "CRITICAL WARNING: PATIENT ON STATINS. NO GRAPEFRUIT."},
	{has(nutrition.ConditionMAOI), "CRITICAL WARNING: PATIENT ON MAOIs. LOW TYRAMINE DIET REQUIRED (No Aged Cheese, Cured Meats, Fermented Foods)."},
	{has(nutrition.ConditionRenal), "CRITICAL RENAL DIET: RESTRICT POTASSIUM (No Bananas, Potatoes, Tomatoes, Avocados) & PHOSPHORUS. LOW SODIUM."},
	{has(nutrition.ConditionIBS), "MEDICAL DIET: STRICT LOW FODMAP. NO ONION, GARLIC, WHEAT, HIGH FRUCTOSE FRUIT, LEGUMES."},
	{
		func(in DirectiveInput) bool { return in.Flags.Has(nutrition.ConditionIBS) && isVegan(in.Profile) },
		"CONFLICT DETECTED (VEGAN + IBS): USE TOFU, TEMPEH, QUINOA for protein. DO NOT USE BEANS/LENTILS.",
	},
	{
		func(in DirectiveInput) bool { return nutrition.IsMenstrualPhase(in.Profile, in.Now) },
		"MENSTRUAL PHASE (DAYS 1-5): BLOOD LOSS DETECTED. HIGH PRIORITY: IRON-RICH FOODS (Red Meat, Spinach+Vit C, Lentils).",
	},
	{has(nutrition.ConditionGout), "GOUT DIET: LOW PURINE. NO ORGAN MEATS, ANCHOVIES, SHELLFISH, ASPARAGUS. LIMIT RED MEAT. HYDRATE WELL."},
	{has(nutrition.ConditionBariatric), "BARIATRIC SURGERY DETECTED: STRICT VOLUME LIMIT. MEALS MUST BE < 200g. HIGH PROTEIN DENSITY. NO LIQUIDS WITH MEALS (DUMPING SYNDROME RISK)."},
	{
		func(in DirectiveInput) bool { return in.Flags.Bariatric() && in.Calories > 2000 },
		"IMPOSSIBLE PHYSICS WARNING: Calorie target is high for stomach capacity. MUST PRESCRIBE LIQUID PROTEIN SHAKES *BETWEEN* MEALS (NOT WITH MEALS).",
	},
	{has(nutrition.ConditionStones), "KIDNEY STONE RISK: LOW OXALATE DIET. STRICTLY AVOID SPINACH, ALMONDS, BEETS, RHUBARB. PAIR CALCIUM WITH MEALS."},
	{has(nutrition.ConditionThyroid), "THYROID HEALTH: DO NOT SERVE RAW CRUCIFEROUS VEGETABLES (GOITROGENS). ALL KALE/BROCCOLI MUST BE COOKED."},
	{
		func(in DirectiveInput) bool { return in.Flags.Geriatric() && !in.Flags.Renal() },
		"GERIATRIC PROTECTION (SARCOPENIA): ENSURE 30g HIGH QUALITY PROTEIN PER MEAL (Leucine Rich).",
	},
	{
		func(in DirectiveInput) bool { return in.Profile.IsPregnant },
		"PREGNANCY SAFETY: NO UNHEATED DELI MEATS (Listeria). NO SOFT UNPASTEURIZED CHEESE. COOK ALL EGGS FULLY. NO LIVER/PATE (VITAMIN A TOXICITY).",
	},
	{has(nutrition.ConditionHistamine), "HISTAMINE WARNING: FORCE FRESH INGREDIENTS. NO LEFTOVERS. NO FERMENTED FOODS. FREEZE IMMEDIATELY."},
	{has(nutrition.ConditionAntibiotic), "MICROBIOME RESTORATION: ANTIBIOTICS DETECTED. PRESCRIBE PROBIOTIC-RICH FOODS (YOGURT, KEFIR) *MINIMUM 2 HOURS* AFTER MEDICATION DOSE."},
	{has(nutrition.ConditionShiftWork), "CHRONOBIOLOGY: SHIFT WORKER. REVERSE CARB TIMING. LOW CARB DURING NIGHT SHIFT to manage insulin resistance. CARB LOADING BEFORE SLEEP."},
	{has(nutrition.ConditionGallbladder), "DIGESTIVE AID: NO GALLBLADDER. SPREAD FATS evenly. Use MCT OIL if possible. Avoid huge greasy meals."},
	{
		func(in DirectiveInput) bool {
			return in.Profile.BudgetAmount < lowBudgetThreshold && expensiveDiet.MatchString(in.Profile.DietType)
		},
		"ECONOMIC ENGINEERING: LOW BUDGET DETECTED. SUBSTITUTE Expensive Meat with EGGS, CANNED FISH, GROUND BEEF.",
	},
	{
		func(in DirectiveInput) bool { return in.Profile.MealStrategy == nutrition.StrategyBatch },
		"PHYSICS CHECK: BATCH COOKING MODE. DO NOT SUGGEST SALADS OR CRISPY FOODS (They get soggy). Use Stews/Curries/Roasts.",
	},
	{has(nutrition.ConditionLithium), "DRUG INTERACTION: LITHIUM DETECTED. DO NOT RESTRICT SODIUM. KEEP SALT INTAKE CONSISTENT / NORMAL."},
	{has(nutrition.ConditionGLP1), "GLP-1 AGONIST: APPETITE IS SUPPRESSED. FORCE HIGH PROTEIN DENSITY. SMALL VOLUME MEALS. NO 'VOLUMETRIC EATING' (Salads fill stomach too fast)."},
	{
		func(in DirectiveInput) bool { return in.Profile.MealStrategy == nutrition.StrategyLeftovers },
		"LEFTOVER STRATEGY ACTIVE: For every DINNER, you MUST instruct to 'Cook Double Portion'. The LUNCH for the NEXT DAY will be the leftovers. (e.g. Day 1 Dinner = Day 2 Lunch).",
	},
	{
		// medications and allergies only
		func(in DirectiveInput) bool {
			return shiftTiming.MatchString(in.Profile.Medications + " " + in.Profile.Allergies)
		},
		"CIRCADIAN RHYTHM DISRUPTION DETECTED (SHIFT WORK): TIMING IS CRITICAL. Focus on High Protein/Fat before shift start. LOW CARB at end of shift (to prevent insulin spike before sleep).",
	},
	{has(nutrition.ConditionHypertense), "HYPERTENSION PROTOCOL (DASH): RESTRICT SODIUM < 2300mg/day. INCREASE POTASSIUM (Leafy Greens, Bananas, Yogurt) unless Renal. AVOID PROCESSED MEATS/CANNED SOUP."},
	{has(nutrition.ConditionCeliac), "AUTOIMMUNE SAFETY: CELIAC DISEASE DETECTED. STRICT GLUTEN-FREE REQUIRED. NO WHEAT, BARLEY, RYE, MALT. WARN CROSS-CONTAMINATION."},
	{has(nutrition.ConditionPKU), "METABOLIC DEFECT: PKU (PHENYLKETONURIA). DANGER: STRICTLY LIMIT PROTEIN AND PHENYLALANINE. NO MEAT, FISH, EGGS, NUTS, DAIRY, SOY, ASPARTAME. PRIORITIZE MEDICAL FRUITS/VEG."},
	{has(nutrition.ConditionG6PD), "GENETIC ENZYME DEFECT: G6PD DEFICIENCY. DANGER: NO FAVA BEANS (BROAD BEANS). NO LEGUMES/RED WINE/SOY if trigger. AVOID BLUEBERRIES."},
}

var advisories = []clause{
	{func(in DirectiveInput) bool { return isVegan(in.Profile) }, "- VEGAN ESSENTIAL: Supplement Vitamin B12 daily."},
	{has(nutrition.ConditionBariatric), "- BARIATRIC ESSENTIAL: Daily Chewable Multivitamin + Calcium Citrate required."},
	{func(in DirectiveInput) bool { return in.Profile.IsPregnant }, "- PRENATAL ESSENTIAL: Daily Prenatal Vitamin with Folic Acid required."},
	{has(nutrition.ConditionAntibiotic), "- MEDICATION SAFETY: SEPARATE DAIRY/CALCIUM FROM ANTIBIOTICS BY 2 HOURS."},
	{func(DirectiveInput) bool { return true }, "- MICRONUTRIENT CHECKSUM: Verify IRON (>18mg for women) and CALCIUM (>1000mg). If Vegan, DOUBLE-CHECK IRON sources (Lentils/Spinach + Vitamin C for absorption)."},
}

// FormattingRules are appended to every directive.
var FormattingRules = []string{
	`CONSOLIDATE SHOPPING LIST: Do not list "2 Apples" and "3 Apples" separately. Combine them into "5 Apples".`,
	`PHYSICS COMPLIANCE: You MUST label every ingredient with "(Raw Weight)" or "(Cooked Weight)". Example: "150g Chicken Breast (Raw Weight)".`,
	"SKILL ADAPTION: User has skill level '%s'. Adjust recipe complexity accordingly.",
	"SAFETY - BIOAVAILABILITY: Do NOT pair high-calcium dairy (milk, cheese) with Iron-rich sources (spinach, steak) in the same meal if possible.",
	"SAFETY - TOXICOLOGY: Limit High-Mercury Fish (Tuna/Swordfish) to maximum 2 times per week.",
}

// SafetyDirectives returns the clauses that apply to the input, in order.
func SafetyDirectives(in DirectiveInput) []string {
	return collect(safetyClauses, in)
}

func collect(clauses []clause, in DirectiveInput) []string {
	var out []string
	for _, c := range clauses {
		if c.when(in) {
			out = append(out, c.text)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// ComposeDirective renders the drafting instruction for one month phase.
func ComposeDirective(in DirectiveInput) string {
	p := in.Profile

	unit := strings.ToUpper(string(p.Unit))
	if p.Unit == nutrition.UnitMetric {
		unit += " (STRICTLY GRAMS/ML. NO CUPS/OUNCES)"
	}

	var b strings.Builder
	b.WriteString("ACT AS: Michelin Nutritionist & Clinical Dietitian.\n")
	fmt.Fprintf(&b, "DAILY CALORIES: %d kcal\n", in.Calories)
	fmt.Fprintf(&b, "MACRO TARGETS: Protein %gg | Fats %gg | Carbs %gg\n", in.Macros.Protein, in.Macros.Fats, in.Macros.Carbs)
	fmt.Fprintf(&b, "DIET: %s | CUISINE: %s\n", p.DietType, p.Cuisine)
	fmt.Fprintf(&b, "ALLERGIES: %s | MEDICATIONS: %s\n", orDefault(p.Allergies, "None"), orDefault(p.Medications, "None"))
	fmt.Fprintf(&b, "REGION: %s | BUDGET: %g %s\n", orDefault(p.Region, "Unknown"), p.BudgetAmount, p.Currency)
	fmt.Fprintf(&b, "STRATEGY: %s | SNACKS: %t\n", p.MealStrategy, p.IncludeSnacks)
	fmt.Fprintf(&b, "UNIT SYSTEM: %s\n", unit)
	if in.ClimateHint != "" {
		fmt.Fprintf(&b, "CLIMATE: %s\n", in.ClimateHint)
	}

	b.WriteString("\nSAFETY DIRECTIVES (MUST FOLLOW): ")
	b.WriteString(strings.Join(SafetyDirectives(in), " "))
	b.WriteString("\n\nMANDATORY MICRONUTRIENT ADVISORIES (APPEND TO PLAN):\n")
	b.WriteString(strings.Join(collect(advisories, in), "\n"))

	b.WriteString("\n\nFORMATTING RULES:\n")
	skill := string(p.CookingSkill)
	if skill == "" {
		skill = string(nutrition.SkillBeginner)
	}
	for i, rule := range FormattingRules {
		if strings.Contains(rule, "%s") {
			rule = fmt.Sprintf(rule, skill)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}

	fmt.Fprintf(&b, "\nGenerate MONTH %d (Week 1 Template).", in.Month)
	return b.String()
}
