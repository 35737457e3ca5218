package domain

// CustomerData is the applicant payload as posted by the evaluation form.
// Genero and CantidadTelefonos are collected but carry no weight.
type CustomerData struct {
	Edad              int     `json:"Edad"`
	Genero            int     `json:"Genero"`
	EstadoCivil       int     `json:"EstadoCivil"`
	CantidadHijos     int     `json:"CantidadHijos"`
	CantidadTelefonos int     `json:"CantidadTelefonos"`
	Trabaja           bool    `json:"Trabaja"`
	Ingreso           float64 `json:"Ingreso"`
	AntiguedadMeses   int     `json:"Antiguedad_Meses"`
	TrabajoFisico     bool    `json:"Trabajo_Fisico"`
	Provincia         int     `json:"Provincia"`
	Patrono           int     `json:"Patrono"`
	HaciendaInscrito  bool    `json:"Hacienda_Inscrito"`
	NivelIngreso      int     `json:"nivel_ingreso"`
	RiesgoDespido     int     `json:"riesgo_despido"`
	MovilidadSocial   int     `json:"movilidad_social"`
}

func (c CustomerData) ToProfile() ApplicantProfile {
	return ApplicantProfile{
		Age:              c.Edad,
		IsEmployed:       c.Trabaja,
		MonthlyIncome:    c.Ingreso,
		TenureMonths:     c.AntiguedadMeses,
		NumberOfChildren: c.CantidadHijos,
		CivilStatus:      CivilStatusFromCode(c.EstadoCivil),
		EmployerType:     EmployerTypeFromCode(c.Patrono),
		LivesInMetroArea: c.Provincia == ProvinceSanJose,
		IsTaxRegistered:  c.HaciendaInscrito,
		HasPhysicalJob:   c.TrabajoFisico,
		TerminationRisk:  c.RiesgoDespido,
		IncomeLevel:      c.NivelIngreso,
		SocialMobility:   c.MovilidadSocial,
	}
}

type PredictionResponse struct {
	MalPagador      bool     `json:"mal_pagador"`
	Probabilidad    float64  `json:"probabilidad"`
	NivelRiesgo     string   `json:"nivel_riesgo"`
	Titulo          string   `json:"titulo"`
	Recomendaciones []string `json:"recomendaciones"`
	EvaluacionID    string   `json:"evaluacion_id,omitempty"`
}

func NewPredictionResponse(evaluationID string, score RiskScore) PredictionResponse {
	return PredictionResponse{
		MalPagador:      score.IsHighRisk(),
		Probabilidad:    score.Probability,
		NivelRiesgo:     score.Tier.Label(),
		Titulo:          score.Tier.Title(),
		Recomendaciones: score.Recommendations,
		EvaluacionID:    evaluationID,
	}
}
