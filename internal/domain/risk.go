package domain

import (
	"time"
)

type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

var tierRecommendations = map[RiskTier][]string{
	RiskHigh: {
		"Solicitar garantías adicionales o avales",
		"Considerar un monto de crédito reducido",
		"Implementar seguimiento más frecuente",
		"Evaluar condiciones especiales de pago",
	},
	RiskMedium: {
		"Evaluación adicional recomendada",
		"Considerar condiciones de pago moderadas",
		"Seguimiento periódico",
	},
	RiskLow: {
		"Cliente apto para condiciones estándar",
		"Considerar para productos preferenciales",
		"Seguimiento rutinario recomendado",
	},
}

// Recommendations returns a fresh copy of the tier's ordered recommendation list.
func (t RiskTier) Recommendations() []string {
	recs := tierRecommendations[t]
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// Label is the Spanish tier name used on the wire.
func (t RiskTier) Label() string {
	switch t {
	case RiskHigh:
		return "alto"
	case RiskMedium:
		return "medio"
	default:
		return "bajo"
	}
}

func (t RiskTier) Title() string {
	switch t {
	case RiskHigh:
		return "Resultado: ALTA probabilidad de morosidad"
	case RiskMedium:
		return "Resultado: MEDIA probabilidad de morosidad"
	default:
		return "Resultado: BAJA probabilidad de morosidad"
	}
}

type RiskFactor struct {
	Rule         string  `json:"rule"`
	Contribution float64 `json:"contribution"`
}

type RiskScore struct {
	Probability     float64      `json:"probability"`
	Raw             float64      `json:"raw"`
	Tier            RiskTier     `json:"tier"`
	Recommendations []string     `json:"recommendations"`
	Factors         []RiskFactor `json:"factors,omitempty"`
}

// IsHighRisk reports whether the applicant is flagged as a likely defaulter.
func (s RiskScore) IsHighRisk() bool {
	return s.Tier == RiskHigh
}

type Evaluation struct {
	ID          string           `json:"id"`
	Profile     ApplicantProfile `json:"profile"`
	Score       RiskScore        `json:"score"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}
