package domain

type CivilStatus string
type EmployerType string

const (
	CivilSingle   CivilStatus = "single"
	CivilMarried  CivilStatus = "married"
	CivilDivorced CivilStatus = "divorced"
	CivilWidowed  CivilStatus = "widowed"
	CivilOther    CivilStatus = "other"

	EmployerIndependent EmployerType = "independent"
	EmployerPrivate     EmployerType = "private"
	EmployerGovernment  EmployerType = "government"
	EmployerSemiPublic  EmployerType = "semi_public"
)

// Province code of San José, the only province treated as metro area.
const ProvinceSanJose = 1

type ApplicantProfile struct {
	Age              int          `json:"age"`
	IsEmployed       bool         `json:"is_employed"`
	MonthlyIncome    float64      `json:"monthly_income"`
	TenureMonths     int          `json:"tenure_months"`
	NumberOfChildren int          `json:"number_of_children"`
	CivilStatus      CivilStatus  `json:"civil_status"`
	EmployerType     EmployerType `json:"employer_type"`
	LivesInMetroArea bool         `json:"lives_in_metro_area"`
	IsTaxRegistered  bool         `json:"is_tax_registered"`
	HasPhysicalJob   bool         `json:"has_physical_job"`
	TerminationRisk  int          `json:"termination_risk"`
	IncomeLevel      int          `json:"income_level"`
	SocialMobility   int          `json:"social_mobility"`
}

// CivilStatusFromCode maps the form's EstadoCivil code. Judicial
// reconciliation (5), judicial separation (6) and unknown codes are "other".
func CivilStatusFromCode(code int) CivilStatus {
	switch code {
	case 1:
		return CivilSingle
	case 2:
		return CivilMarried
	case 3:
		return CivilDivorced
	case 4:
		return CivilWidowed
	default:
		return CivilOther
	}
}

func (c CivilStatus) Code() int {
	switch c {
	case CivilSingle:
		return 1
	case CivilMarried:
		return 2
	case CivilDivorced:
		return 3
	case CivilWidowed:
		return 4
	default:
		return 7
	}
}

func (c CivilStatus) Valid() bool {
	switch c {
	case CivilSingle, CivilMarried, CivilDivorced, CivilWidowed, CivilOther:
		return true
	}
	return false
}

// EmployerTypeFromCode maps the form's Patrono code. Unknown codes fall back
// to private, which carries no weight.
func EmployerTypeFromCode(code int) EmployerType {
	switch code {
	case 1:
		return EmployerSemiPublic
	case 2:
		return EmployerGovernment
	case 3:
		return EmployerIndependent
	default:
		return EmployerPrivate
	}
}

func (e EmployerType) Code() int {
	switch e {
	case EmployerSemiPublic:
		return 1
	case EmployerGovernment:
		return 2
	case EmployerIndependent:
		return 3
	default:
		return 4
	}
}

func (e EmployerType) Valid() bool {
	switch e {
	case EmployerIndependent, EmployerPrivate, EmployerGovernment, EmployerSemiPublic:
		return true
	}
	return false
}
