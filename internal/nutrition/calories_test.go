package nutrition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dietlyplans/dietly/internal/nutrition"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func baseProfile() *nutrition.Profile {
	return &nutrition.Profile{
		Name:         "Dana",
		Age:          30,
		Gender:       nutrition.GenderFemale,
		HeightCm:     170,
		WeightKg:     70,
		Unit:         nutrition.UnitMetric,
		Activity:     nutrition.ActivityModerate,
		Goal:         nutrition.GoalLose,
		DietType:     "Standard Balanced",
		MealStrategy: nutrition.StrategyFresh,
	}
}

func resolve(t *testing.T, p *nutrition.Profile) (nutrition.Metabolics, nutrition.Resolution, *nutrition.Journal, error) {
	t.Helper()
	j := nutrition.NewJournal(nil)
	flags := nutrition.DetectProfileConditions(p)
	m := nutrition.ComputeMetabolics(p, flags, fixedNow, j)
	r, err := nutrition.ResolveTarget(p, m, flags, j)
	return m, r, j, err
}

func TestResolveTarget_StandardLoss(t *testing.T) {
	m, r, j, err := resolve(t, baseProfile())
	require.NoError(t, err)

	assert.Equal(t, 1452.0, m.BMR)
	assert.Equal(t, 2251.0, m.TDEE)
	assert.Equal(t, 1801, r.Calories)
	assert.Equal(t, nutrition.GoalLose, r.EffectiveGoal)
	assert.Empty(t, j.Entries())
}

func TestResolveTarget_FloorApplied(t *testing.T) {
	p := baseProfile()
	p.WeightKg = 45
	p.HeightCm = 150
	p.Age = 60
	p.Activity = nutrition.ActivitySedentary

	_, r, _, err := resolve(t, p)
	require.NoError(t, err)
	assert.Equal(t, 1200, r.Calories)

	p.Gender = nutrition.GenderMale
	_, r, _, err = resolve(t, p)
	require.NoError(t, err)
	assert.Equal(t, 1500, r.Calories)
}

func TestResolveTarget_PediatricLoseBecomesMaintain(t *testing.T) {
	p := baseProfile()
	p.Age = 15
	p.Gender = nutrition.GenderMale
	p.WeightKg = 60

	m, r, j, err := resolve(t, p)
	require.NoError(t, err)

	assert.Equal(t, int(m.TDEE), r.Calories)
	assert.Equal(t, nutrition.GoalMaintain, r.EffectiveGoal)
	assert.True(t, r.HoldTarget)
	require.Len(t, j.Entries(), 1)
	assert.Contains(t, j.Entries()[0], "Pediatric")

	assert.Equal(t, r.Calories, nutrition.PhaseTarget(2, p, m, r))
	assert.Equal(t, r.Calories, nutrition.PhaseTarget(3, p, m, r))
}

func TestResolveTarget_PregnancyAndLactation(t *testing.T) {
	p := baseProfile()
	p.IsPregnant = true
	p.Goal = nutrition.GoalGain

	m, r, _, err := resolve(t, p)
	require.NoError(t, err)
	assert.Equal(t, int(m.TDEE)+300, r.Calories)

	p = baseProfile()
	p.IsBreastfeeding = true
	m, r, j, err := resolve(t, p)
	require.NoError(t, err)
	assert.Equal(t, int(m.TDEE)+500, r.Calories)
	assert.Contains(t, j.Entries(), "Medical Notice: Lactation detected. Adding +500kcal/day for milk supply.")
}

func TestResolveTarget_SafetyBlock(t *testing.T) {
	p := baseProfile()
	p.WeightKg = 40

	_, _, _, err := resolve(t, p)
	require.ErrorIs(t, err, nutrition.ErrSafetyBlock)
}

func TestResolveTarget_UnderweightMaintains(t *testing.T) {
	p := baseProfile()
	p.WeightKg = 50

	var progress []string
	j := nutrition.NewJournal(func(msg string) { progress = append(progress, msg) })
	flags := nutrition.DetectProfileConditions(p)
	m := nutrition.ComputeMetabolics(p, flags, fixedNow, j)
	r, err := nutrition.ResolveTarget(p, m, flags, j)
	require.NoError(t, err)

	assert.Equal(t, int(m.TDEE), r.Calories)
	assert.Equal(t, nutrition.GoalMaintain, r.EffectiveGoal)
	assert.True(t, r.NoSurplus)
	assert.Len(t, progress, 1)
	assert.Empty(t, j.Entries())
}

func TestResolveTarget_BariatricForcesSnacks(t *testing.T) {
	p := baseProfile()
	p.Gender = nutrition.GenderMale
	p.WeightKg = 120
	p.HeightCm = 180
	p.Age = 40
	p.Activity = nutrition.ActivityActive
	p.Goal = nutrition.GoalGain
	p.Conditions = "gastric sleeve"

	_, r, j, err := resolve(t, p)
	require.NoError(t, err)

	assert.Greater(t, r.Calories, 2000)
	assert.True(t, p.IncludeSnacks)
	assert.Len(t, j.Entries(), 1)
}

func TestComputeMetabolics_Adjustments(t *testing.T) {
	t.Run("luteal buffer", func(t *testing.T) {
		p := baseProfile()
		start := fixedNow.AddDate(0, 0, -20)
		p.LastPeriodStart = &start

		m, r, j, err := resolve(t, p)
		require.NoError(t, err)
		assert.Equal(t, 250.0, m.CycleBuffer)
		assert.Equal(t, 2501.0, m.TDEE)
		assert.Equal(t, 2001, r.Calories)
		assert.Contains(t, j.Entries()[0], "Luteal Phase detected (Day 20)")
	})

	t.Run("menstrual phase", func(t *testing.T) {
		p := baseProfile()
		start := fixedNow.AddDate(0, 0, -3)
		p.LastPeriodStart = &start
		assert.True(t, nutrition.IsMenstrualPhase(p, fixedNow))
		assert.False(t, nutrition.IsMenstrualPhase(baseProfile(), fixedNow))
	})

	t.Run("thyroid", func(t *testing.T) {
		p := baseProfile()
		p.Medications = "levothyroxine 50mcg"
		m, _, j, err := resolve(t, p)
		require.NoError(t, err)
		assert.Equal(t, 1379.0, m.BMR)
		assert.Len(t, j.Entries(), 1)
	})

	t.Run("diuretic", func(t *testing.T) {
		p := baseProfile()
		p.Activity = nutrition.ActivitySedentary
		p.Medications = "coffee"
		m, _, _, err := resolve(t, p)
		require.NoError(t, err)
		assert.InDelta(t, 2.76, m.BaseWater, 1e-9)
	})

	t.Run("renal water cap", func(t *testing.T) {
		p := baseProfile()
		p.WeightKg = 100
		p.HeightCm = 190
		p.Activity = nutrition.ActivityAthlete
		p.Medications = "furosemide"
		p.Conditions = "dialysis"
		m, _, j, err := resolve(t, p)
		require.NoError(t, err)
		assert.LessOrEqual(t, m.BaseWater, 1.5)
		assert.Contains(t, j.Entries(), "CRITICAL SAFETY: Renal Condition detected. Hard-capping fluid intake to 1.5L.")
	})
}

func TestPhaseTarget_AdaptiveThermogenesis(t *testing.T) {
	p := baseProfile()
	m, r, _, err := resolve(t, p)
	require.NoError(t, err)

	m1 := nutrition.PhaseTarget(1, p, m, r)
	m2 := nutrition.PhaseTarget(2, p, m, r)
	m3 := nutrition.PhaseTarget(3, p, m, r)

	assert.Equal(t, r.Calories, m1)
	assert.Equal(t, 2122, m2)
	assert.Less(t, m3, m2)
	assert.GreaterOrEqual(t, m3, nutrition.FloorFor(p.Gender))
}

func TestPhaseTarget_GainAndFloor(t *testing.T) {
	p := baseProfile()
	p.Goal = nutrition.GoalGain
	m, r, _, err := resolve(t, p)
	require.NoError(t, err)
	assert.Greater(t, nutrition.PhaseTarget(3, p, m, r), nutrition.PhaseTarget(2, p, m, r))

	small := baseProfile()
	small.WeightKg = 48
	small.HeightCm = 150
	small.Age = 70
	small.Activity = nutrition.ActivitySedentary
	m, r, _, err = resolve(t, small)
	require.NoError(t, err)
	assert.Equal(t, 1200, nutrition.PhaseTarget(2, small, m, r))
	assert.Equal(t, 1200, nutrition.PhaseTarget(3, small, m, r))
}

func TestPhaseTarget_MaintainStepsUp(t *testing.T) {
	p := baseProfile()
	p.Goal = nutrition.GoalMaintain
	m, r, _, err := resolve(t, p)
	require.NoError(t, err)

	tests := []struct {
		month int
		want  int
	}{
		{1, 2251},
		{2, 2346},
		{3, 2440},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nutrition.PhaseTarget(tt.month, p, m, r), "month %d", tt.month)
	}
}

func TestPhaseTarget_UnderweightStaysAtTDEE(t *testing.T) {
	p := baseProfile()
	p.Goal = nutrition.GoalGain
	p.WeightKg = 50
	m, r, _, err := resolve(t, p)
	require.NoError(t, err)

	m2 := nutrition.PhaseTarget(2, p, m, r)
	assert.Equal(t, int(nutrition.ComputeTDEE(nutrition.MifflinBMR(50*0.985, p.HeightCm, p.Age, p.Gender), p.Activity)), m2)
	assert.LessOrEqual(t, m2, r.Calories)
}
