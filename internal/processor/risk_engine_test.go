package processor

import (
	"context"
	"math"
	"sync"
	"testing"

	"credit_risk/internal/domain"
	"credit_risk/pkg/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baselineProfile() domain.ApplicantProfile {
	return domain.ApplicantProfile{
		Age:              30,
		IsEmployed:       true,
		MonthlyIncome:    1_000_000,
		TenureMonths:     24,
		NumberOfChildren: 0,
		CivilStatus:      domain.CivilSingle,
		EmployerType:     domain.EmployerPrivate,
		LivesInMetroArea: false,
		IsTaxRegistered:  true,
		HasPhysicalJob:   false,
		TerminationRisk:  2,
		IncomeLevel:      4,
		SocialMobility:   4,
	}
}

func highRiskProfile() domain.ApplicantProfile {
	return domain.ApplicantProfile{
		Age:              20,
		IsEmployed:       false,
		MonthlyIncome:    200_000,
		TenureMonths:     2,
		NumberOfChildren: 5,
		CivilStatus:      domain.CivilSingle,
		EmployerType:     domain.EmployerIndependent,
		LivesInMetroArea: true,
		IsTaxRegistered:  false,
		HasPhysicalJob:   true,
		TerminationRisk:  5,
		IncomeLevel:      1,
		SocialMobility:   1,
	}
}

func newEngine() *RiskEngine {
	return NewRiskEngine(DefaultCalibration())
}

func factorNames(s domain.RiskScore) []string {
	names := make([]string, 0, len(s.Factors))
	for _, f := range s.Factors {
		names = append(names, f.Rule)
	}
	return names
}

func TestRiskEngine_BaselineScoresZero(t *testing.T) {
	score := newEngine().Score(baselineProfile())

	assert.Equal(t, 0.0, score.Probability)
	assert.Equal(t, 0.0, score.Raw)
	assert.Equal(t, domain.RiskLow, score.Tier)
	assert.Empty(t, score.Factors)
	assert.Equal(t, domain.RiskLow.Recommendations(), score.Recommendations)
}

func TestRiskEngine_HighRiskClampsToOne(t *testing.T) {
	score := newEngine().Score(highRiskProfile())

	assert.Equal(t, 2.12, score.Raw)
	assert.Equal(t, 1.0, score.Probability)
	assert.Equal(t, domain.RiskHigh, score.Tier)
	assert.True(t, score.IsHighRisk())
	assert.Len(t, score.Recommendations, 4)
	assert.ElementsMatch(t, []string{
		"age_band", "unemployed", "income_severe", "tenure_severe", "dependents_severe",
		"employer_independent", "metro_cost_of_living", "termination_risk",
		"low_income_level", "low_social_mobility", "not_tax_registered", "physical_job",
	}, factorNames(score))
}

func TestRiskEngine_SingleRuleContributions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ApplicantProfile)
		want   float64
	}{
		{"young", func(p *domain.ApplicantProfile) { p.Age = 22 }, 0.15},
		{"lower age edge", func(p *domain.ApplicantProfile) { p.Age = 23 }, 0},
		{"upper age edge", func(p *domain.ApplicantProfile) { p.Age = 67 }, 0},
		{"old", func(p *domain.ApplicantProfile) { p.Age = 68 }, 0.15},
		{"unemployed", func(p *domain.ApplicantProfile) { p.IsEmployed = false }, 0.35},
		{"income severe", func(p *domain.ApplicantProfile) { p.MonthlyIncome = 399_999 }, 0.25},
		{"income moderate lower edge", func(p *domain.ApplicantProfile) { p.MonthlyIncome = 400_000 }, 0.15},
		{"income moderate", func(p *domain.ApplicantProfile) { p.MonthlyIncome = 599_999 }, 0.15},
		{"income upper edge", func(p *domain.ApplicantProfile) { p.MonthlyIncome = 600_000 }, 0},
		{"tenure moderate", func(p *domain.ApplicantProfile) { p.TenureMonths = 6 }, 0.10},
		{"tenure upper edge", func(p *domain.ApplicantProfile) { p.TenureMonths = 12 }, 0},
		{"children moderate", func(p *domain.ApplicantProfile) { p.NumberOfChildren = 3 }, 0.08},
		{"children moderate upper", func(p *domain.ApplicantProfile) { p.NumberOfChildren = 4 }, 0.08},
		{"children two", func(p *domain.ApplicantProfile) { p.NumberOfChildren = 2 }, 0},
		{"divorced", func(p *domain.ApplicantProfile) { p.CivilStatus = domain.CivilDivorced }, 0.05},
		{"widowed", func(p *domain.ApplicantProfile) { p.CivilStatus = domain.CivilWidowed }, 0.03},
		{"married", func(p *domain.ApplicantProfile) { p.CivilStatus = domain.CivilMarried }, -0.05},
		{"other civil status", func(p *domain.ApplicantProfile) { p.CivilStatus = domain.CivilOther }, 0},
		{"government", func(p *domain.ApplicantProfile) { p.EmployerType = domain.EmployerGovernment }, -0.08},
		{"semi public", func(p *domain.ApplicantProfile) { p.EmployerType = domain.EmployerSemiPublic }, -0.05},
		{"metro with high income", func(p *domain.ApplicantProfile) { p.LivesInMetroArea = true }, 0},
		{"termination risk edge", func(p *domain.ApplicantProfile) { p.TerminationRisk = 3 }, 0},
		{"termination risk", func(p *domain.ApplicantProfile) { p.TerminationRisk = 4 }, 0.25},
		{"income level", func(p *domain.ApplicantProfile) { p.IncomeLevel = 2 }, 0.20},
		{"social mobility", func(p *domain.ApplicantProfile) { p.SocialMobility = 2 }, 0.12},
		{"not tax registered", func(p *domain.ApplicantProfile) { p.IsTaxRegistered = false }, 0.15},
		{"physical job", func(p *domain.ApplicantProfile) { p.HasPhysicalJob = true }, 0.08},
	}

	engine := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baselineProfile()
			tt.mutate(&p)

			score := engine.Score(p)

			assert.Equal(t, tt.want, score.Raw)
		})
	}
}

func TestRiskEngine_MetroRuleStacksWithIncomeBand(t *testing.T) {
	p := baselineProfile()
	p.LivesInMetroArea = true
	p.MonthlyIncome = 700_000

	score := newEngine().Score(p)

	assert.Equal(t, 0.10, score.Raw)

	p.MonthlyIncome = 500_000
	score = newEngine().Score(p)

	assert.Equal(t, 0.25, score.Raw)
}

func TestRiskEngine_TenureBandsAreExclusive(t *testing.T) {
	p := baselineProfile()
	p.TenureMonths = 3

	score := newEngine().Score(p)

	assert.Equal(t, 0.20, score.Raw)
	assert.Equal(t, []string{"tenure_severe"}, factorNames(score))
}

func TestRiskEngine_NegativeAccumulatorClampsToZero(t *testing.T) {
	p := baselineProfile()
	p.CivilStatus = domain.CivilMarried
	p.EmployerType = domain.EmployerGovernment

	score := newEngine().Score(p)

	assert.Equal(t, -0.13, score.Raw)
	assert.Equal(t, 0.0, score.Probability)
	assert.Equal(t, domain.RiskLow, score.Tier)
	assert.Equal(t, []string{"civil_status_married", "employer_government"}, factorNames(score))
}

func TestRiskEngine_NonFiniteIncomeDoesNotPanic(t *testing.T) {
	tests := []struct {
		name   string
		income float64
		want   []string
	}{
		{"positive infinity", math.Inf(1), []string{}},
		{"NaN", math.NaN(), []string{}},
		{"negative infinity", math.Inf(-1), []string{"income_severe"}},
	}

	engine := newEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baselineProfile()
			p.MonthlyIncome = tt.income

			var score domain.RiskScore
			require.NotPanics(t, func() { score = engine.Score(p) })

			assert.Equal(t, tt.want, factorNames(score))
		})
	}
}

func TestRiskEngine_Idempotent(t *testing.T) {
	engine := newEngine()
	p := highRiskProfile()
	p.NumberOfChildren = 3
	p.IsEmployed = true

	first := engine.Score(p)
	second := engine.Score(p)

	assert.Equal(t, first, second)
}

func TestRiskEngine_Monotonicity(t *testing.T) {
	engine := newEngine()

	rich := baselineProfile()
	rich.MonthlyIncome = 700_000
	poor := rich
	poor.MonthlyIncome = 300_000
	assert.GreaterOrEqual(t, engine.Score(poor).Probability, engine.Score(rich).Probability)

	safe := baselineProfile()
	safe.TerminationRisk = 2
	risky := safe
	risky.TerminationRisk = 4
	assert.GreaterOrEqual(t, engine.Score(risky).Probability, engine.Score(safe).Probability)
}

func TestRiskEngine_ClampInvariant(t *testing.T) {
	engine := newEngine()
	statuses := []domain.CivilStatus{domain.CivilSingle, domain.CivilMarried, domain.CivilDivorced, domain.CivilWidowed, domain.CivilOther}
	employers := []domain.EmployerType{domain.EmployerIndependent, domain.EmployerPrivate, domain.EmployerGovernment, domain.EmployerSemiPublic}

	sawNegative := false
	for _, age := range []int{18, 30, 70} {
		for _, income := range []float64{0, 450_000, 700_000, 2_000_000} {
			for _, cs := range statuses {
				for _, et := range employers {
					for _, risky := range []bool{true, false} {
						for _, scale := range []int{1, 3, 5} {
							p := baselineProfile()
							p.Age, p.MonthlyIncome, p.CivilStatus, p.EmployerType = age, income, cs, et
							p.TerminationRisk, p.IncomeLevel, p.SocialMobility = 6-scale, scale, scale
							if risky {
								p.IsEmployed, p.IsTaxRegistered = false, false
								p.LivesInMetroArea, p.HasPhysicalJob = true, true
								p.TenureMonths, p.NumberOfChildren = 8, 3
							}

							score := engine.Score(p)

							sawNegative = sawNegative || score.Raw < 0
							assert.LessOrEqual(t, score.Probability, 1.0)
							assert.GreaterOrEqual(t, score.Probability, 0.0)
							assert.Equal(t, engine.Classify(decimal.NewFromFloat(score.Probability)), score.Tier)
						}
					}
				}
			}
		}
	}
	assert.True(t, sawNegative, "grid should include profiles with a negative total")
}

func TestRiskEngine_ClassifyBoundaries(t *testing.T) {
	engine := newEngine()
	tests := []struct {
		score string
		want  domain.RiskTier
	}{
		{"-0.13", domain.RiskLow},
		{"0", domain.RiskLow},
		{"0.199999", domain.RiskLow},
		{"0.2", domain.RiskMedium},
		{"0.200001", domain.RiskMedium},
		{"0.5", domain.RiskMedium},
		{"0.500001", domain.RiskHigh},
		{"1", domain.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Classify(decimal.RequireFromString(tt.score)))
		})
	}

	assert.Equal(t, domain.RiskMedium, engine.ClassifyProbability(0.2))
	assert.Equal(t, domain.RiskMedium, engine.ClassifyProbability(0.5))
	assert.Equal(t, domain.RiskHigh, engine.ClassifyProbability(0.500001))
}

func TestRiskEngine_ExactTwentyPercentIsMedium(t *testing.T) {
	p := baselineProfile()
	p.TenureMonths = 1

	score := newEngine().Score(p)

	assert.Equal(t, 0.2, score.Probability)
	assert.Equal(t, domain.RiskMedium, score.Tier)
}

func TestRiskEngine_ExactFiftyPercentIsMedium(t *testing.T) {
	// 0.25 termination risk + 0.25 severe income
	p := baselineProfile()
	p.TerminationRisk = 5
	p.MonthlyIncome = 100_000

	score := newEngine().Score(p)

	assert.Equal(t, 0.5, score.Probability)
	assert.Equal(t, domain.RiskMedium, score.Tier)
}

func TestRiskEngine_CustomCalibration(t *testing.T) {
	cal := DefaultCalibration()
	cal.UnemployedWeight = 0.6
	cal.CivilStatusWeights = map[string]float64{"single": 0.01}

	p := baselineProfile()
	p.IsEmployed = false

	score := NewRiskEngine(cal).Score(p)

	assert.Equal(t, 0.61, score.Raw)
	assert.Equal(t, domain.RiskHigh, score.Tier)
}

func TestRiskEngine_UnorderedBandsStillPreferSevere(t *testing.T) {
	cal := DefaultCalibration()
	cal.TenureBands = []Band{
		{Name: "tenure_moderate", Threshold: 12, Weight: 0.10},
		{Name: "tenure_severe", Threshold: 6, Weight: 0.20},
	}
	p := baselineProfile()
	p.TenureMonths = 3

	score := NewRiskEngine(cal).Score(p)

	assert.Equal(t, []string{"tenure_severe"}, factorNames(score))
}

func TestRiskEngine_ConcurrentScoring(t *testing.T) {
	engine := newEngine()
	p := highRiskProfile()
	p.IsEmployed = true
	want := engine.Score(p)

	var wg sync.WaitGroup
	results := make([]domain.RiskScore, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.Score(p)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestEvaluationProcessor_Evaluate(t *testing.T) {
	proc := NewEvaluationProcessor(newEngine(), nil)

	evaluation, err := proc.Evaluate(context.Background(), highRiskProfile())

	require.NoError(t, err)
	assert.NotEmpty(t, evaluation.ID)
	assert.False(t, evaluation.EvaluatedAt.IsZero())
	assert.Equal(t, domain.RiskHigh, evaluation.Score.Tier)
	assert.Equal(t, highRiskProfile(), evaluation.Profile)
}

func TestEvaluationProcessor_RejectsInvalidProfile(t *testing.T) {
	proc := NewEvaluationProcessor(newEngine(), nil)
	p := baselineProfile()
	p.Age = 0

	evaluation, err := proc.Evaluate(context.Background(), p)

	assert.Nil(t, evaluation)
	assert.ErrorIs(t, err, validator.ErrInvalidAge)
}

func TestEvaluationProcessor_CancelledContext(t *testing.T) {
	proc := NewEvaluationProcessor(newEngine(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.Evaluate(ctx, baselineProfile())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluationProcessor_RejectsNonFiniteIncome(t *testing.T) {
	proc := NewEvaluationProcessor(newEngine(), nil)

	for _, income := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		p := baselineProfile()
		p.MonthlyIncome = income

		var err error
		require.NotPanics(t, func() { _, err = proc.Evaluate(context.Background(), p) })
		assert.ErrorIs(t, err, validator.ErrNonFiniteIncome)
	}
}

func TestEvaluationProcessor_Predict(t *testing.T) {
	proc := NewEvaluationProcessor(newEngine(), nil)
	req := domain.CustomerData{
		Edad: 30, EstadoCivil: 1, Trabaja: true, Ingreso: 1_000_000, AntiguedadMeses: 24,
		Provincia: 3, Patrono: 4, HaciendaInscrito: true,
		NivelIngreso: 4, RiesgoDespido: 2, MovilidadSocial: 4,
	}

	evaluation, err := proc.Predict(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, baselineProfile(), evaluation.Profile)
	assert.Equal(t, domain.RiskLow, evaluation.Score.Tier)
}
