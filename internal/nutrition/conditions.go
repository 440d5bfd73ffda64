package nutrition

import (
	"regexp"
	"sort"
)

// Condition identifies a medical or lifestyle flag derived from free text.
type Condition string

const (
	ConditionRenal       Condition = "renal"
	ConditionGallbladder Condition = "gallbladder_absent"
	ConditionDiabetic    Condition = "diabetic"
	ConditionGLP1        Condition = "glp1"
	ConditionBariatric   Condition = "bariatric"
	ConditionStones      Condition = "kidney_stones"
	ConditionThyroid     Condition = "thyroid"
	ConditionCeliac      Condition = "celiac"
	ConditionPKU         Condition = "pku"
	ConditionG6PD        Condition = "g6pd"
	ConditionHistamine   Condition = "histamine"
	ConditionGout        Condition = "gout"
	ConditionHypertense  Condition = "hypertension"
	ConditionAntibiotic  Condition = "antibiotic"
	ConditionShiftWork   Condition = "shift_work"
	ConditionLithium     Condition = "lithium"
	ConditionIBS         Condition = "ibs"
	ConditionWarfarin    Condition = "warfarin"
	ConditionStatin      Condition = "statin"
	ConditionMAOI        Condition = "maoi"
	ConditionDiuretic    Condition = "diuretic"

	// ConditionGeriatric and ConditionPregnant come from the profile rather than text.
	ConditionGeriatric Condition = "geriatric"
	ConditionPregnant  Condition = "pregnant"
)

// conditionPatterns maps each text-derived condition to its synonym keywords.
// Adding a condition is a new entry here.
var conditionPatterns = map[Condition]*regexp.Regexp{
	ConditionHistamine:   keywords("histamine", "dao", "mast cell", "mcas"),
	ConditionGallbladder: keywords("gallbladder", "cholecystectomy", "bile"),
	ConditionRenal:       keywords("kidneys?", "renal", "ckd", "dialysis"),
	ConditionGout:        keywords("gout", "uric", "hyperuricemia"),
	ConditionHypertense:  keywords("pressure", "hypertension", "dash", "blood pressure"),
	ConditionBariatric:   keywords("sleeve", "gastric", "bypass", "bariatric"),
	ConditionStones:      keywords("stones?", "oxalate"),
	ConditionThyroid:     keywords("thyroid", "hypothyroid", "hashimoto"),
	ConditionCeliac:      keywords("celiac", "gluten", "wheat"),
	ConditionPKU:         keywords("pku", "phenylketonuria", "phenylalanine"),
	ConditionG6PD:        keywords("g6pd", "favism"),
	ConditionAntibiotic:  keywords("antibiotics?", "amoxicillin", "doxycycline", "cipro", "penicillin", "azithromycin", "tetracycline"),
	ConditionDiabetic:    keywords("diabetes", "diabetic", "metformin", "insulin", "glipizide", "jardiance"),
	ConditionGLP1:        keywords("ozempic", "wegovy", "mounjaro", "semaglutide", "saxenda"),
	ConditionLithium:     keywords("lithium", "lithobid"),
	ConditionShiftWork:   keywords("shifts?", "night", "nights", "graveyard", "rotation"),
	ConditionIBS:         keywords("ibs", "fodmap", "irritable"),
	ConditionWarfarin:    keywords("warfarin", "coumadin", "jantoven"),
	ConditionStatin:      keywords("statins?", "lipitor", "atorvastatin", "simvastatin", "rosuvastatin"),
	ConditionMAOI:        keywords("maois?", "nardil"),
	ConditionDiuretic:    keywords("coffee", "caffeine", "spironolactone", "furosemide", "lasix"),
}

// thyroidBMRPattern is matched against medications and allergies only.
var thyroidBMRPattern = keywords("thyroid", "levothyroxine", "hypothyroid", "hashimoto")

func keywords(words ...string) *regexp.Regexp {
	pattern := `(?i)\b(?:`
	for i, w := range words {
		if i > 0 {
			pattern += "|"
		}
		pattern += w
	}
	return regexp.MustCompile(pattern + `)\b`)
}

// Flags is the immutable set of conditions detected for one request.
type Flags struct {
	set map[Condition]bool
}

// Has reports whether the condition was detected.
func (f Flags) Has(c Condition) bool {
	return f.set[c]
}

// List returns the detected conditions in sorted order.
func (f Flags) List() []Condition {
	out := make([]Condition, 0, len(f.set))
	for c, ok := range f.set {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Convenience accessors for the conditions the allocators branch on.
func (f Flags) Renal() bool       { return f.Has(ConditionRenal) }
func (f Flags) Geriatric() bool   { return f.Has(ConditionGeriatric) }
func (f Flags) Gallbladder() bool { return f.Has(ConditionGallbladder) }
func (f Flags) Diabetic() bool    { return f.Has(ConditionDiabetic) }
func (f Flags) GLP1() bool        { return f.Has(ConditionGLP1) }
func (f Flags) Bariatric() bool   { return f.Has(ConditionBariatric) }
func (f Flags) Histamine() bool   { return f.Has(ConditionHistamine) }

// NewFlags builds a flag set from explicit conditions. Used by tests and
// callers that already know the conditions.
func NewFlags(conditions ...Condition) Flags {
	set := make(map[Condition]bool, len(conditions))
	for _, c := range conditions {
		set[c] = true
	}
	return Flags{set: set}
}

// DetectConditions scans lowercase health text against the keyword table.
// It never fails: absence of a match yields false.
func DetectConditions(text string) Flags {
	set := make(map[Condition]bool)
	for c, re := range conditionPatterns {
		if re.MatchString(text) {
			set[c] = true
		}
	}
	return Flags{set: set}
}

// DetectProfileConditions combines text detection with profile-derived flags.
func DetectProfileConditions(p *Profile) Flags {
	flags := DetectConditions(p.HealthText())
	if p.Age > geriatricAge {
		flags.set[ConditionGeriatric] = true
	}
	if p.IsPregnant {
		flags.set[ConditionPregnant] = true
	}
	if p.IsRenal {
		flags.set[ConditionRenal] = true
	}
	if p.IsThyroid {
		flags.set[ConditionThyroid] = true
	}
	return flags
}

// NeedsThyroidBMRCorrection reports whether BMR should be reduced for thyroid context.
func NeedsThyroidBMRCorrection(p *Profile) bool {
	return p.IsThyroid || thyroidBMRPattern.MatchString(p.Medications+" "+p.Allergies)
}
