package mealplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/dietlyplans/dietly/internal/nutrition"
	"github.com/dietlyplans/dietly/internal/provider/resilience"
)

// Progress messages emitted at phase transitions.
const (
	ProgressMonth1   = "Designing Month 1 (Ignition)..."
	ProgressMonth2   = "Evolving to Month 2 (Momentum)..."
	ProgressMonth3   = "Finalizing Month 3 (Peak)..."
	ProgressFallback = "AI Service Unreachable. Activating Diet-Aware Emergency Fallback..."
)

const (
	hotClimateBonusLitres = 0.3
	maxWaterLitres        = 5.5
	renalWaterLitres      = 1.5
	electrolyteLitres     = 3.0
)

// ClimateSource supplies an optional weather line for the user's region.
type ClimateSource interface {
	ClimateHint(ctx context.Context, region string) (string, error)
}

// ModeSwitch lets operators force the deterministic plan.
type ModeSwitch interface {
	IsFallbackForced(ctx context.Context) bool
}

// Recorder receives generation metrics.
type Recorder interface {
	RecordDraftAttempt(ctx context.Context, month int, outcome string)
	RecordGeneration(ctx context.Context, mode string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDraftAttempt(context.Context, int, string)         {}
func (nopRecorder) RecordGeneration(context.Context, string, time.Duration) {}

// ServiceConfig holds configuration for the plan generation service.
type ServiceConfig struct {
	Drafter  Drafter
	Climate  ClimateSource
	Switch   ModeSwitch
	Recorder Recorder
	Logger   zerolog.Logger
	Clock    func() time.Time

	// MaxAttempts per month phase. Default: 3
	MaxAttempts int
	// BackoffUnit is multiplied by the attempt number between retries. Default: 2s
	BackoffUnit time.Duration
	// DraftTimeout bounds each drafting call. Default: 60s
	DraftTimeout time.Duration
	// MaxOutputTokens is passed to the drafter. Default: 60000
	MaxOutputTokens int
}

// Service generates three-month plans.
type Service struct {
	drafter         Drafter
	climate         ClimateSource
	modeSwitch      ModeSwitch
	recorder        Recorder
	logger          zerolog.Logger
	clock           func() time.Time
	maxAttempts     int
	backoffUnit     time.Duration
	draftTimeout    time.Duration
	maxOutputTokens int
}

// NewService creates a plan generation service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffUnit == 0 {
		cfg.BackoffUnit = 2 * time.Second
	}
	if cfg.DraftTimeout == 0 {
		cfg.DraftTimeout = 60 * time.Second
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 60000
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Service{
		drafter:         cfg.Drafter,
		climate:         cfg.Climate,
		modeSwitch:      cfg.Switch,
		recorder:        cfg.Recorder,
		logger:          cfg.Logger,
		clock:           cfg.Clock,
		maxAttempts:     cfg.MaxAttempts,
		backoffUnit:     cfg.BackoffUnit,
		draftTimeout:    cfg.DraftTimeout,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

// state is a step of the generation state machine.
type state int

const (
	stateDraftingMonth1 state = iota
	stateDraftingMonth2
	stateDraftingMonth3
	stateRetry
	stateFallback
	stateDone
)

func (s state) String() string {
	return [...]string{"drafting_month1", "drafting_month2", "drafting_month3", "retry", "fallback", "done"}[s]
}

func (s state) month() int {
	return int(s-stateDraftingMonth1) + 1
}

var progressFor = map[state]string{
	stateDraftingMonth1: ProgressMonth1,
	stateDraftingMonth2: ProgressMonth2,
	stateDraftingMonth3: ProgressMonth3,
	stateFallback:       ProgressFallback,
}

// generation holds the request-local state of one Generate call.
type generation struct {
	svc        *Service
	profile    *nutrition.Profile
	flags      nutrition.Flags
	metabolics nutrition.Metabolics
	resolution nutrition.Resolution
	journal    *nutrition.Journal
	now        time.Time
	climate    string

	targets [3]int
	macros  [3]nutrition.MacroSplit
	drafts  [3]*Draft

	state   state
	resume  state
	attempt int
	backoff backoff.BackOff
}

// Generate produces a complete plan for a profile. It returns
// ErrDrafterNotConfigured before any computation when no drafter is set,
// nutrition.ErrInvalidProfile for out-of-range input and
// nutrition.ErrSafetyBlock for critically underweight users. Drafting
// failures never surface: they end in the fallback plan. progress may be nil.
func (s *Service) Generate(ctx context.Context, input nutrition.Profile, progress func(string)) (*PlanResult, error) {
	if s.drafter == nil {
		return nil, ErrDrafterNotConfigured
	}

	started := s.clock()
	input.ApplyDefaults()
	if err := input.Validate(); err != nil {
		return nil, err
	}
	p := input.Sanitize()

	g := &generation{
		svc:     s,
		profile: &p,
		journal: nutrition.NewJournal(progress),
		now:     started,
		flags:   nutrition.DetectProfileConditions(&p),
	}

	if g.flags.Histamine() && p.MealStrategy == nutrition.StrategyLeftovers {
		p.MealStrategy = nutrition.StrategyFresh
		g.journal.Progress("Medical Override: Histamine Intolerance detected. Disabling 'Leftovers' to prevent anaphylaxis risk.")
	}

	g.metabolics = nutrition.ComputeMetabolics(&p, g.flags, started, g.journal)
	res, err := nutrition.ResolveTarget(&p, g.metabolics, g.flags, g.journal)
	if err != nil {
		s.logger.Warn().Err(err).Float64("bmi", g.metabolics.BMI).Msg("plan generation blocked")
		return nil, fmt.Errorf("resolve calorie target: %w", err)
	}
	g.resolution = res
	g.planTargets()

	if strings.EqualFold(p.DietType, "keto") {
		if g.flags.Gallbladder() {
			g.journal.Progress("Medical Override: Gallbladder removal detected. Soft-blocking Keto (70% Fat) -> Low Carb (40% Fat).")
		}
		if g.flags.Renal() {
			g.journal.Progress("Medical Override: Renal Condition detected. Soft-blocking Keto. Prioritizing Kidney-Safe protein/acid load.")
		}
	}

	g.climate = s.climateHint(ctx, p.Region)

	result, err := g.run(ctx)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordGeneration(ctx, string(result.Mode), s.clock().Sub(started))
	s.logger.Info().
		Str("mode", string(result.Mode)).
		Int("calories", g.targets[0]).
		Int("conditions", len(result.Conditions)).
		Dur("duration", s.clock().Sub(started)).
		Msg("plan generated")

	return result, nil
}

// planTargets resolves the calorie and macro targets for all three months.
func (g *generation) planTargets() {
	for i := range g.targets {
		month := i + 1
		g.targets[i] = nutrition.PhaseTarget(month, g.profile, g.metabolics, g.resolution)
		alloc := nutrition.AllocateMacros(g.targets[i], g.profile.DietType, g.profile.Gender, g.flags)
		g.macros[i] = alloc.Macros
		if month == 1 {
			for _, c := range alloc.Skipped {
				g.journal.Record(fmt.Sprintf("Medical Conflict: Renal protein cap takes precedence over the %s protein floor.", strings.ToUpper(string(c))))
			}
		}
	}
}

func (s *Service) climateHint(ctx context.Context, region string) string {
	if s.climate == nil || strings.TrimSpace(region) == "" {
		return ""
	}
	hint, err := s.climate.ClimateHint(ctx, region)
	if err != nil {
		s.logger.Debug().Err(err).Str("region", region).Msg("climate hint unavailable")
		return ""
	}
	return hint
}

// run drives the state machine until it reaches done or fallback.
func (g *generation) run(ctx context.Context) (*PlanResult, error) {
	g.backoff = backoff.WithContext(
		backoff.WithMaxRetries(resilience.NewLinearBackOff(g.svc.backoffUnit), uint64(g.svc.maxAttempts-1)),
		ctx,
	)

	if g.svc.modeSwitch != nil && g.svc.modeSwitch.IsFallbackForced(ctx) {
		g.transition(stateFallback)
	} else {
		g.transition(stateDraftingMonth1)
	}

	for {
		switch g.state {
		case stateDraftingMonth1, stateDraftingMonth2, stateDraftingMonth3:
			outcome := g.draft(ctx, g.state.month())
			g.svc.recorder.RecordDraftAttempt(ctx, g.state.month(), outcome.Kind.String())

			switch outcome.Kind {
			case OutcomeSuccess:
				g.drafts[g.state.month()-1] = outcome.Draft
				g.attempt = 0
				g.backoff.Reset()
				if g.state == stateDraftingMonth3 {
					g.transition(stateDone)
				} else {
					g.transition(g.state + 1)
				}
			case OutcomeRetryable:
				g.logAttempt(outcome.Err)
				g.resume = g.state
				g.transition(stateRetry)
			case OutcomeFatal:
				g.logAttempt(outcome.Err)
				g.transition(stateFallback)
			}

		case stateRetry:
			wait := g.backoff.NextBackOff()
			if wait == backoff.Stop {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				g.transition(stateFallback)
				continue
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			g.attempt++
			g.state = g.resume

		case stateDone:
			return g.assembleDrafted(), nil

		case stateFallback:
			return g.assembleFallback(), nil
		}
	}
}

// transition moves to a new state, emitting its progress message.
func (g *generation) transition(next state) {
	if msg, ok := progressFor[next]; ok {
		g.journal.Progress(msg)
	}
	g.state = next
}

func (g *generation) logAttempt(err error) {
	g.svc.logger.Warn().
		Err(err).
		Str("drafter", g.svc.drafter.Name()).
		Int("month", g.state.month()).
		Int("attempt", g.attempt+1).
		Msg("draft attempt failed")
}

// draft makes one bounded drafting call and classifies the result.
func (g *generation) draft(ctx context.Context, month int) DraftOutcome {
	i := month - 1
	directive := ComposeDirective(DirectiveInput{
		Profile:     g.profile,
		Flags:       g.flags,
		Calories:    g.targets[i],
		Macros:      g.macros[i],
		Month:       month,
		Now:         g.now,
		ClimateHint: g.climate,
	})

	callCtx, cancel := context.WithTimeout(ctx, g.svc.draftTimeout)
	defer cancel()

	text, err := g.svc.drafter.Draft(callCtx, DraftRequest{
		Month:           month,
		Directive:       directive,
		Schema:          SchemaFor(month),
		MaxOutputTokens: g.svc.maxOutputTokens,
	})
	if err != nil {
		return DraftOutcome{Kind: Classify(err), Err: err}
	}

	d, err := ParseDraft(text, month)
	if err != nil {
		return DraftOutcome{Kind: OutcomeRetryable, Err: err}
	}
	return DraftOutcome{Kind: OutcomeSuccess, Draft: d}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *generation) stats(water float64, electrolytes bool) UserStats {
	return UserStats{
		Profile:           *g.profile,
		BMR:               g.metabolics.BMR,
		TDEE:              g.metabolics.TDEE,
		BMI:               g.metabolics.BMI,
		WaterTargetLitres: water,
		NeedsElectrolytes: electrolytes,
	}
}

// FinalWater applies the hot-climate bonus and the safety caps to base water.
func FinalWater(base float64, hot, renal bool) float64 {
	water := base
	if hot && !renal {
		water += hotClimateBonusLitres
	}
	limit := maxWaterLitres
	if renal {
		limit = renalWaterLitres
	}
	return min(nutrition.Round1(water), limit)
}

// NeedsElectrolytes reports whether the plan should prescribe electrolytes.
func NeedsElectrolytes(water float64, activity nutrition.ActivityLevel, hot bool) bool {
	return water > electrolyteLitres ||
		activity == nutrition.ActivityAthlete ||
		(activity == nutrition.ActivityActive && hot)
}

func (g *generation) assembleDrafted() *PlanResult {
	m1 := g.drafts[0]
	hot := m1.ClimateAnalysis != nil && m1.ClimateAnalysis.IsHot
	water := FinalWater(g.metabolics.BaseWater, hot, g.flags.Renal())

	result := &PlanResult{
		UserStats:          g.stats(water, NeedsElectrolytes(water, g.profile.Activity, hot)),
		SafetyVerification: m1.SafetyVerification,
		MedicationAnalysis: m1.MedicationAnalysis,
		ClimateAnalysis:    m1.ClimateAnalysis,
		BudgetStrategy:     m1.BudgetStrategy,
		PantryTips:         m1.PantryTips,
		MetabolicLog:       g.journal.Entries(),
		Conditions:         g.flags.List(),
		Mode:               ModeDrafted,
		GeneratedAt:        g.now,
	}

	for i, month := range result.Roadmap.Months() {
		plan, err := ExpandMonth(i+1, g.drafts[i], g.targets[i], water, g.profile.IncludeSnacks, g.profile.Allergies)
		if err != nil {
			// ParseDraft already rejects empty templates
			g.svc.logger.Error().Err(err).Msg("expand drafted month")
			continue
		}
		*month = plan
	}
	return result
}

func (g *generation) assembleFallback() *PlanResult {
	calories := g.targets[0]
	draft := Fallback(g.profile, g.flags, calories, g.macros[0])
	water := nutrition.Round1(g.metabolics.BaseWater)

	result := &PlanResult{
		UserStats:          g.stats(water, false),
		SafetyVerification: draft.SafetyVerification,
		MedicationAnalysis: draft.MedicationAnalysis,
		ClimateAnalysis:    draft.ClimateAnalysis,
		BudgetStrategy:     draft.BudgetStrategy,
		PantryTips:         draft.PantryTips,
		MetabolicLog:       g.journal.Entries(),
		Conditions:         g.flags.List(),
		Mode:               ModeFallback,
		GeneratedAt:        g.now,
	}

	for i, month := range result.Roadmap.Months() {
		plan, err := ExpandMonth(i+1, draft, calories, water, g.profile.IncludeSnacks, "")
		if err != nil {
			g.svc.logger.Error().Err(err).Msg("expand fallback month")
			continue
		}
		*month = plan
	}
	return result
}

// IsConfigError reports whether err is an operator-facing configuration problem.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrDrafterNotConfigured)
}
