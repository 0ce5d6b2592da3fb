// Package taxconfig holds the statutory parameters of one fiscal year:
// social-security contribution rates, the salary caps each contribution is
// subject to, and the progressive income-tax scale.
//
// A Configuration is built once (ForYear or Load) and then only read. It is
// passed explicitly to the payroll engine and the exporters so tests can run
// several fiscal years side by side.
package taxconfig

import (
	"github.com/shopspring/decimal"
)

const DefaultYear = 2024

type EmployeeRates struct {
	Pension decimal.Decimal
	Health  decimal.Decimal
}

type EmployerRates struct {
	Pension      decimal.Decimal
	Health       decimal.Decimal
	TrainingLevy decimal.Decimal
	WorkRiskBase decimal.Decimal
	// WorkRiskVariable is the risk factor used when the employer has no
	// specific risk classification.
	WorkRiskVariable decimal.Decimal
}

// Caps are the maximum salary amounts each contribution is computed on.
// The training levy is deliberately absent: it applies to the full salary.
type Caps struct {
	Pension  decimal.Decimal
	Health   decimal.Decimal
	WorkRisk decimal.Decimal
}

// Bracket is one step of the income-tax scale. Upper is nil for the
// open-ended top bracket.
type Bracket struct {
	Lower      decimal.Decimal
	Upper      *decimal.Decimal
	Rate       decimal.Decimal
	Fixed      decimal.Decimal
	ExcessBase decimal.Decimal
}

// Contains reports whether income falls inside the bracket (both bounds inclusive).
func (b Bracket) Contains(income decimal.Decimal) bool {
	if income.LessThan(b.Lower) {
		return false
	}
	return b.Upper == nil || income.LessThanOrEqual(*b.Upper)
}

// Tax applies the bracket formula at full precision.
func (b Bracket) Tax(income decimal.Decimal) decimal.Decimal {
	return income.Sub(b.ExcessBase).Mul(b.Rate).Add(b.Fixed)
}

type Configuration struct {
	FiscalYear int
	Source     string

	Employee EmployeeRates
	Employer EmployerRates
	Caps     Caps
	// Brackets are ordered by Lower, contiguous from zero, and only the
	// last one is open-ended. A shared boundary belongs to the lower bracket.
	Brackets []Bracket

	MaxEffectiveTaxRate decimal.Decimal
}

// WorkRiskRate is the work-risk rate for the given variable factor.
func (c *Configuration) WorkRiskRate(variable decimal.Decimal) decimal.Decimal {
	return c.Employer.WorkRiskBase.Add(variable)
}

// MaxEmployeePension is the largest pension contribution any salary can produce.
func (c *Configuration) MaxEmployeePension() decimal.Decimal {
	return c.Caps.Pension.Mul(c.Employee.Pension)
}

// MaxEmployeeHealth is the largest health contribution any salary can produce.
func (c *Configuration) MaxEmployeeHealth() decimal.Decimal {
	return c.Caps.Health.Mul(c.Employee.Health)
}
