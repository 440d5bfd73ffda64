package mealplan

// SchemaType is a JSON schema primitive understood by structured-output drafters.
type SchemaType string

const (
	TypeObject  SchemaType = "OBJECT"
	TypeArray   SchemaType = "ARRAY"
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
	TypeBoolean SchemaType = "BOOLEAN"
)

// Schema describes the structured output a drafter must return. Schemas are
// built fresh by MonthOneSchema and FollowUpSchema and never mutated.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

func scalar(t SchemaType) *Schema { return &Schema{Type: t} }

func arrayOf(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

func macroSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"p":      scalar(TypeNumber),
			"c":      scalar(TypeNumber),
			"f":      scalar(TypeNumber),
			"fiber":  scalar(TypeNumber),
			"sugar":  scalar(TypeNumber),
			"sodium": scalar(TypeNumber),
		},
		Required: []string{"p", "c", "f"},
	}
}

func mealSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"name":         scalar(TypeString),
			"description":  scalar(TypeString),
			"ingredients":  arrayOf(scalar(TypeString)),
			"instructions": arrayOf(scalar(TypeString)),
			"calories":     scalar(TypeNumber),
			"macros":       macroSchema(),
			"sideDish":     scalar(TypeString),
		},
		Required: []string{"name", "ingredients", "instructions", "calories", "macros"},
	}
}

func daySchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"dayIndex": scalar(TypeInteger),
			"meals": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"breakfast": mealSchema(),
					"lunch":     mealSchema(),
					"dinner":    mealSchema(),
					"snack":     mealSchema(),
				},
				Required: []string{"breakfast", "lunch", "dinner"},
			},
			"dailyMacros": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"protein":  scalar(TypeNumber),
					"carbs":    scalar(TypeNumber),
					"fats":     scalar(TypeNumber),
					"fiber":    scalar(TypeNumber),
					"calories": scalar(TypeNumber),
				},
				Required: []string{"protein", "carbs", "fats", "calories"},
			},
		},
		Required: []string{"meals", "dailyMacros", "dayIndex"},
	}
}

func shoppingSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"category": scalar(TypeString),
			"items":    arrayOf(scalar(TypeString)),
		},
		Required: []string{"category", "items"},
	}
}

// MonthOneSchema carries the narrative fields plus the week template.
func MonthOneSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"safetyVerification": scalar(TypeString),
			"medicationAnalysis": scalar(TypeString),
			"climateAnalysis": {
				Type: TypeObject,
				Properties: map[string]*Schema{
					"isHot":  scalar(TypeBoolean),
					"advice": scalar(TypeString),
				},
				Required: []string{"isHot", "advice"},
			},
			"budgetStrategy": scalar(TypeString),
			"pantryTips":     scalar(TypeString),
			"phaseName":      scalar(TypeString),
			"weekTemplate":   arrayOf(daySchema()),
			"shoppingList":   arrayOf(shoppingSchema()),
		},
		Required: []string{"safetyVerification", "phaseName", "weekTemplate", "shoppingList", "climateAnalysis", "budgetStrategy"},
	}
}

// FollowUpSchema is used for months 2 and 3.
func FollowUpSchema() *Schema {
	return &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"phaseName":    scalar(TypeString),
			"weekTemplate": arrayOf(daySchema()),
			"shoppingList": arrayOf(shoppingSchema()),
		},
		Required: []string{"phaseName", "weekTemplate", "shoppingList"},
	}
}

// SchemaFor returns the output schema for a month phase.
func SchemaFor(month int) *Schema {
	if month == 1 {
		return MonthOneSchema()
	}
	return FollowUpSchema()
}
