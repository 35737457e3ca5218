package validator

import (
	"credit_risk/internal/domain"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidProfile      = errors.New("invalid applicant profile")
	ErrInvalidAge          = errors.New("age must be between 18 and 100")
	ErrNegativeIncome      = errors.New("monthly income cannot be negative")
	ErrNonFiniteIncome     = errors.New("monthly income must be a finite number")
	ErrNegativeTenure      = errors.New("tenure cannot be negative")
	ErrNegativeChildren    = errors.New("number of children cannot be negative")
	ErrScaleOutOfRange     = errors.New("subjective scale must be between 1 and 5")
	ErrUnknownCivilStatus  = errors.New("unknown civil status")
	ErrUnknownEmployerType = errors.New("unknown employer type")
)

const (
	minAge   = 18
	maxAge   = 100
	minScale = 1
	maxScale = 5
)

// customerDataSchema mirrors the evaluation form's input constraints.
const customerDataSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["Edad", "nivel_ingreso", "riesgo_despido", "movilidad_social"],
	"properties": {
		"Edad":              {"type": "integer", "minimum": 18, "maximum": 100},
		"Genero":            {"type": "integer", "minimum": 1, "maximum": 2},
		"EstadoCivil":       {"type": "integer", "minimum": 1, "maximum": 7},
		"CantidadHijos":     {"type": "integer", "minimum": 0, "maximum": 20},
		"CantidadTelefonos": {"type": "integer", "minimum": 0, "maximum": 10},
		"Trabaja":           {"type": "boolean"},
		"Ingreso":           {"type": "number", "minimum": 0},
		"Antiguedad_Meses":  {"type": "integer", "minimum": 0},
		"Trabajo_Fisico":    {"type": "boolean"},
		"Provincia":         {"type": "integer", "minimum": 1, "maximum": 7},
		"Patrono":           {"type": "integer", "minimum": 1, "maximum": 4},
		"Hacienda_Inscrito": {"type": "boolean"},
		"nivel_ingreso":     {"type": "integer", "minimum": 1, "maximum": 5},
		"riesgo_despido":    {"type": "integer", "minimum": 1, "maximum": 5},
		"movilidad_social":  {"type": "integer", "minimum": 1, "maximum": 5}
	}
}`

type ProfileValidator struct {
	schema *gojsonschema.Schema
}

func NewProfileValidator() *ProfileValidator {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(customerDataSchema))
	if err != nil {
		panic(fmt.Sprintf("validator: compile customer data schema: %v", err))
	}
	return &ProfileValidator{schema: schema}
}

// ValidateRequest checks a raw CustomerData body against the form schema.
func (v *ProfileValidator) ValidateRequest(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateProfile applies semantic range checks to a decoded profile. All
// violations are reported together.
func (v *ProfileValidator) ValidateProfile(p domain.ApplicantProfile) error {
	var errs []error

	if p.Age < minAge || p.Age > maxAge {
		errs = append(errs, ErrInvalidAge)
	}
	switch {
	case math.IsNaN(p.MonthlyIncome) || math.IsInf(p.MonthlyIncome, 0):
		errs = append(errs, ErrNonFiniteIncome)
	case p.MonthlyIncome < 0:
		errs = append(errs, ErrNegativeIncome)
	}
	if p.TenureMonths < 0 {
		errs = append(errs, ErrNegativeTenure)
	}
	if p.NumberOfChildren < 0 {
		errs = append(errs, ErrNegativeChildren)
	}

	scales := []struct {
		name  string
		value int
	}{
		{"termination_risk", p.TerminationRisk},
		{"income_level", p.IncomeLevel},
		{"social_mobility", p.SocialMobility},
	}
	for _, s := range scales {
		if s.value < minScale || s.value > maxScale {
			errs = append(errs, fmt.Errorf("%w: %s=%d", ErrScaleOutOfRange, s.name, s.value))
		}
	}

	if !p.CivilStatus.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownCivilStatus, p.CivilStatus))
	}
	if !p.EmployerType.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownEmployerType, p.EmployerType))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
	}

	return nil
}
