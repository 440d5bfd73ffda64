package nutrition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeBMR(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		height   float64
		age      int
		gender   nutrition.Gender
		bodyFat  *float64
		expected float64
		formula  nutrition.BMRFormula
	}{
		{"adult female mifflin", 70, 170, 30, nutrition.GenderFemale, nil, 1452, nutrition.FormulaMifflin},
		{"adult male mifflin", 70, 170, 30, nutrition.GenderMale, nil, 1618, nutrition.FormulaMifflin},
		{"geriatric correction", 70, 170, 70, nutrition.GenderMale, nil, 1488, nutrition.FormulaMifflin},
		{"child male schofield", 20, 115, 5, nutrition.GenderMale, nil, 949, nutrition.FormulaSchofield},
		{"teen female schofield", 40, 150, 12, nutrition.GenderFemale, nil, 1234, nutrition.FormulaSchofield},
		{"toddler female schofield", 12, 85, 2, nutrition.GenderFemale, nil, 681, nutrition.FormulaSchofield},
		{"katch-mcardle", 80, 180, 30, nutrition.GenderMale, floatPtr(20), 1752.4, nutrition.FormulaKatchMcArdle},
		{"zero body fat falls through", 70, 170, 30, nutrition.GenderFemale, floatPtr(0), 1452, nutrition.FormulaMifflin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := nutrition.ComputeBMR(tt.weight, tt.height, tt.age, tt.gender, tt.bodyFat)
			assert.InDelta(t, tt.expected, res.Value, 0.001)
			assert.Equal(t, tt.formula, res.Formula)
		})
	}
}

func TestComputeBMR_KatchSkipsGeriatricCorrection(t *testing.T) {
	res := nutrition.ComputeBMR(80, 170, 75, nutrition.GenderMale, floatPtr(25))
	assert.InDelta(t, 370+21.6*60, res.Value, 0.001)
}

func TestComputeTDEE(t *testing.T) {
	tests := []struct {
		activity nutrition.ActivityLevel
		expected float64
	}{
		{nutrition.ActivitySedentary, 1742},
		{nutrition.ActivityLight, 1997},
		{nutrition.ActivityModerate, 2251},
		{nutrition.ActivityActive, 2505},
		{nutrition.ActivityAthlete, 2759},
		{"unknown", 1742},
	}

	for _, tt := range tests {
		t.Run(string(tt.activity), func(t *testing.T) {
			assert.Equal(t, tt.expected, nutrition.ComputeTDEE(1452, tt.activity))
		})
	}
}

func TestComputeBaseWater(t *testing.T) {
	tests := []struct {
		name          string
		weight        float64
		activity      nutrition.ActivityLevel
		breastfeeding bool
		age           int
		expected      float64
	}{
		{"adult sedentary", 70, nutrition.ActivitySedentary, false, 30, 2.3},
		{"adult moderate", 70, nutrition.ActivityModerate, false, 30, 2.9},
		{"breastfeeding", 60, nutrition.ActivitySedentary, true, 30, 2.8},
		{"capped", 120, nutrition.ActivityAthlete, false, 30, 4.5},
		{"pediatric first band", 8, nutrition.ActivitySedentary, false, 1, 0.8},
		{"pediatric second band", 15, nutrition.ActivitySedentary, false, 4, 1.3},
		{"pediatric third band", 30, nutrition.ActivitySedentary, false, 12, 1.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nutrition.ComputeBaseWater(tt.weight, tt.activity, tt.breastfeeding, tt.age)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.LessOrEqual(t, got, nutrition.MaxBaseWaterLitres)
		})
	}
}

func TestComputeBMI(t *testing.T) {
	assert.InDelta(t, 24.2, nutrition.ComputeBMI(70, 170), 1e-9)
	assert.InDelta(t, 13.8, nutrition.ComputeBMI(40, 170), 1e-9)
}
