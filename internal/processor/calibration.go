package processor

// Band is one step of a banded rule group. Bands are checked in order and
// the first one whose threshold matches wins.
type Band struct {
	Name      string  `mapstructure:"name"`
	Threshold float64 `mapstructure:"threshold"`
	Weight    float64 `mapstructure:"weight"`
}

// Calibration holds every threshold and weight the engine uses. The values are
// tuned to Costa Rican colones and local wage levels.
type Calibration struct {
	MinAge    int     `mapstructure:"min_age"`
	MaxAge    int     `mapstructure:"max_age"`
	AgeWeight float64 `mapstructure:"age_weight"`

	UnemployedWeight float64 `mapstructure:"unemployed_weight"`

	// Income and tenure bands fire on value < threshold, dependents on value > threshold.
	IncomeBands    []Band `mapstructure:"income_bands"`
	TenureBands    []Band `mapstructure:"tenure_bands"`
	DependentBands []Band `mapstructure:"dependent_bands"`

	CivilStatusWeights map[string]float64 `mapstructure:"civil_status_weights"`
	EmployerWeights    map[string]float64 `mapstructure:"employer_weights"`

	MetroIncomeThreshold float64 `mapstructure:"metro_income_threshold"`
	MetroWeight          float64 `mapstructure:"metro_weight"`

	TerminationRiskAbove  int     `mapstructure:"termination_risk_above"`
	TerminationRiskWeight float64 `mapstructure:"termination_risk_weight"`
	IncomeLevelBelow      int     `mapstructure:"income_level_below"`
	IncomeLevelWeight     float64 `mapstructure:"income_level_weight"`
	SocialMobilityBelow   int     `mapstructure:"social_mobility_below"`
	SocialMobilityWeight  float64 `mapstructure:"social_mobility_weight"`

	UntaxedWeight     float64 `mapstructure:"untaxed_weight"`
	PhysicalJobWeight float64 `mapstructure:"physical_job_weight"`

	MaxScore float64 `mapstructure:"max_score"`

	// Tier cut-offs in percent: p < LowBelow is low, p > HighAbove is high,
	// anything in between (both ends inclusive) is medium.
	LowBelow  float64 `mapstructure:"low_below"`
	HighAbove float64 `mapstructure:"high_above"`
}

func DefaultCalibration() Calibration {
	return Calibration{
		MinAge:           23,
		MaxAge:           67,
		AgeWeight:        0.15,
		UnemployedWeight: 0.35,
		IncomeBands: []Band{
			{Name: "income_severe", Threshold: 400_000, Weight: 0.25},
			{Name: "income_moderate", Threshold: 600_000, Weight: 0.15},
		},
		TenureBands: []Band{
			{Name: "tenure_severe", Threshold: 6, Weight: 0.20},
			{Name: "tenure_moderate", Threshold: 12, Weight: 0.10},
		},
		DependentBands: []Band{
			{Name: "dependents_severe", Threshold: 4, Weight: 0.15},
			{Name: "dependents_moderate", Threshold: 2, Weight: 0.08},
		},
		CivilStatusWeights: map[string]float64{
			"divorced": 0.05,
			"widowed":  0.03,
			"married":  -0.05,
		},
		EmployerWeights: map[string]float64{
			"independent": 0.12,
			"government":  -0.08,
			"semi_public": -0.05,
		},
		MetroIncomeThreshold:  800_000,
		MetroWeight:           0.10,
		TerminationRiskAbove:  3,
		TerminationRiskWeight: 0.25,
		IncomeLevelBelow:      3,
		IncomeLevelWeight:     0.20,
		SocialMobilityBelow:   3,
		SocialMobilityWeight:  0.12,
		UntaxedWeight:         0.15,
		PhysicalJobWeight:     0.08,
		MaxScore:              1.0,
		LowBelow:              20,
		HighAbove:             50,
	}
}
