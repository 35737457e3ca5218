package processor

import (
	"credit_risk/internal/domain"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RiskRule contributes a signed weight when it fires. Rules belonging to an
// exclusive group return at most one hit per evaluation.
type RiskRule struct {
	Name  string
	Apply func(*domain.ApplicantProfile) (RuleHit, bool)
}

type RuleHit struct {
	Name   string
	Weight decimal.Decimal
}

// RiskEngine is stateless after construction and safe for concurrent use.
type RiskEngine struct {
	rules     []RiskRule
	maxScore  decimal.Decimal
	lowBelow  decimal.Decimal
	highAbove decimal.Decimal
}

func NewRiskEngine(cal Calibration) *RiskEngine {
	e := &RiskEngine{
		maxScore:  decimal.NewFromFloat(cal.MaxScore),
		lowBelow:  decimal.NewFromFloat(cal.LowBelow),
		highAbove: decimal.NewFromFloat(cal.HighAbove),
	}
	e.rules = []RiskRule{
		flag("age_band", cal.AgeWeight, func(p *domain.ApplicantProfile) bool {
			return p.Age < cal.MinAge || p.Age > cal.MaxAge
		}),
		flag("unemployed", cal.UnemployedWeight, func(p *domain.ApplicantProfile) bool {
			return !p.IsEmployed
		}),
		bandsBelow("income", cal.IncomeBands, func(p *domain.ApplicantProfile) float64 {
			return p.MonthlyIncome
		}),
		bandsBelow("tenure", cal.TenureBands, func(p *domain.ApplicantProfile) float64 {
			return float64(p.TenureMonths)
		}),
		bandsAbove("dependents", cal.DependentBands, func(p *domain.ApplicantProfile) float64 {
			return float64(p.NumberOfChildren)
		}),
		enumWeights("civil_status", cal.CivilStatusWeights, func(p *domain.ApplicantProfile) string {
			return string(p.CivilStatus)
		}),
		enumWeights("employer", cal.EmployerWeights, func(p *domain.ApplicantProfile) string {
			return string(p.EmployerType)
		}),
		flag("metro_cost_of_living", cal.MetroWeight, func(p *domain.ApplicantProfile) bool {
			return p.LivesInMetroArea && p.MonthlyIncome < cal.MetroIncomeThreshold
		}),
		flag("termination_risk", cal.TerminationRiskWeight, func(p *domain.ApplicantProfile) bool {
			return p.TerminationRisk > cal.TerminationRiskAbove
		}),
		flag("low_income_level", cal.IncomeLevelWeight, func(p *domain.ApplicantProfile) bool {
			return p.IncomeLevel < cal.IncomeLevelBelow
		}),
		flag("low_social_mobility", cal.SocialMobilityWeight, func(p *domain.ApplicantProfile) bool {
			return p.SocialMobility < cal.SocialMobilityBelow
		}),
		flag("not_tax_registered", cal.UntaxedWeight, func(p *domain.ApplicantProfile) bool {
			return !p.IsTaxRegistered
		}),
		flag("physical_job", cal.PhysicalJobWeight, func(p *domain.ApplicantProfile) bool {
			return p.HasPhysicalJob
		}),
	}
	return e
}

// Score folds every rule over the profile. Raw keeps the unclamped total and
// the tier uses it capped at maxScore. Probability is clamped to [0, maxScore].
func (e *RiskEngine) Score(profile domain.ApplicantProfile) domain.RiskScore {
	total := decimal.Zero
	var factors []domain.RiskFactor

	for _, rule := range e.rules {
		hit, ok := rule.Apply(&profile)
		if !ok || hit.Weight.IsZero() {
			continue
		}
		total = total.Add(hit.Weight)
		factors = append(factors, domain.RiskFactor{
			Rule:         hit.Name,
			Contribution: hit.Weight.InexactFloat64(),
		})
	}

	capped := decimal.Min(total, e.maxScore)
	final := decimal.Max(decimal.Zero, capped)
	tier := e.Classify(capped)

	return domain.RiskScore{
		Probability:     final.InexactFloat64(),
		Raw:             total.InexactFloat64(),
		Tier:            tier,
		Recommendations: tier.Recommendations(),
		Factors:         factors,
	}
}

func (e *RiskEngine) Classify(score decimal.Decimal) domain.RiskTier {
	p := score.Mul(hundred)
	switch {
	case p.LessThan(e.lowBelow):
		return domain.RiskLow
	case p.GreaterThan(e.highAbove):
		return domain.RiskHigh
	default:
		return domain.RiskMedium
	}
}

// ClassifyProbability classifies a probability received as a float, e.g. from
// a remote predictor.
func (e *RiskEngine) ClassifyProbability(probability float64) domain.RiskTier {
	return e.Classify(decimal.NewFromFloat(probability))
}

func flag(name string, weight float64, when func(*domain.ApplicantProfile) bool) RiskRule {
	w := decimal.NewFromFloat(weight)
	return RiskRule{
		Name: name,
		Apply: func(p *domain.ApplicantProfile) (RuleHit, bool) {
			if !when(p) {
				return RuleHit{}, false
			}
			return RuleHit{Name: name, Weight: w}, true
		},
	}
}

type compiledBand struct {
	name      string
	threshold float64
	weight    decimal.Decimal
}

func compileBands(bands []Band) []compiledBand {
	out := make([]compiledBand, 0, len(bands))
	for _, b := range bands {
		out = append(out, compiledBand{
			name:      b.Name,
			threshold: b.Threshold,
			weight:    decimal.NewFromFloat(b.Weight),
		})
	}
	return out
}

func lessThan(v, threshold float64) bool    { return v < threshold }
func greaterThan(v, threshold float64) bool { return v > threshold }

// bandsBelow matches value < threshold, most severe band first. Thresholds
// are compared as floats, so NaN never matches and -Inf hits the first band.
func bandsBelow(name string, bands []Band, value func(*domain.ApplicantProfile) float64) RiskRule {
	compiled := compileBands(bands)
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].threshold < compiled[j].threshold
	})
	return bandRule(name, compiled, value, lessThan)
}

// bandsAbove matches value > threshold, most severe band first.
func bandsAbove(name string, bands []Band, value func(*domain.ApplicantProfile) float64) RiskRule {
	compiled := compileBands(bands)
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].threshold > compiled[j].threshold
	})
	return bandRule(name, compiled, value, greaterThan)
}

func bandRule(
	name string,
	bands []compiledBand,
	value func(*domain.ApplicantProfile) float64,
	matches func(float64, float64) bool,
) RiskRule {
	return RiskRule{
		Name: name,
		Apply: func(p *domain.ApplicantProfile) (RuleHit, bool) {
			v := value(p)
			for _, b := range bands {
				if matches(v, b.threshold) {
					return RuleHit{Name: b.name, Weight: b.weight}, true
				}
			}
			return RuleHit{}, false
		},
	}
}

// enumWeights fires exactly one branch per evaluation; values missing from
// the table are neutral.
func enumWeights(name string, weights map[string]float64, key func(*domain.ApplicantProfile) string) RiskRule {
	compiled := make(map[string]decimal.Decimal, len(weights))
	for k, w := range weights {
		compiled[k] = decimal.NewFromFloat(w)
	}
	return RiskRule{
		Name: name,
		Apply: func(p *domain.ApplicantProfile) (RuleHit, bool) {
			k := key(p)
			w, ok := compiled[k]
			if !ok {
				return RuleHit{}, false
			}
			return RuleHit{Name: name + "_" + k, Weight: w}, true
		},
	}
}
