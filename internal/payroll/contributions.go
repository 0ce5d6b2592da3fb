package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/domain"
)

// Cotizable is the portion of a salary each capped contribution applies to.
type Cotizable struct {
	Pension  decimal.Decimal
	Health   decimal.Decimal
	WorkRisk decimal.Decimal
}

// CotizableSalaries applies each contribution cap independently.
func (e *Engine) CotizableSalaries(gross decimal.Decimal) Cotizable {
	if !gross.IsPositive() {
		return Cotizable{Pension: decimal.Zero, Health: decimal.Zero, WorkRisk: decimal.Zero}
	}
	return Cotizable{
		Pension:  decimal.Min(gross, e.cfg.Caps.Pension),
		Health:   decimal.Min(gross, e.cfg.Caps.Health),
		WorkRisk: decimal.Min(gross, e.cfg.Caps.WorkRisk),
	}
}

// EmployeeContributions returns the pension and health amounts withheld
// from the employee. A non-positive salary yields zeros.
func (e *Engine) EmployeeContributions(gross decimal.Decimal) domain.EmployeeContributions {
	cot := e.CotizableSalaries(gross)
	return domain.EmployeeContributions{
		Pension: cot.Pension.Mul(e.cfg.Employee.Pension),
		Health:  cot.Health.Mul(e.cfg.Employee.Health),
	}
}

// EmployerContributions returns the employer-side amounts. The training
// levy is uncapped; work risk uses the base rate plus the variable factor.
func (e *Engine) EmployerContributions(gross decimal.Decimal, opts ...Option) domain.EmployerContributions {
	o := collect(opts)
	risk := e.cfg.Employer.WorkRiskVariable
	if o.riskFactor != nil {
		risk = *o.riskFactor
	}

	if !gross.IsPositive() {
		return domain.EmployerContributions{
			Pension:      decimal.Zero,
			Health:       decimal.Zero,
			TrainingLevy: decimal.Zero,
			WorkRisk:     decimal.Zero,
		}
	}
	cot := e.CotizableSalaries(gross)
	return domain.EmployerContributions{
		Pension:      cot.Pension.Mul(e.cfg.Employer.Pension),
		Health:       cot.Health.Mul(e.cfg.Employer.Health),
		TrainingLevy: gross.Mul(e.cfg.Employer.TrainingLevy),
		WorkRisk:     cot.WorkRisk.Mul(e.cfg.WorkRiskRate(risk)),
	}
}
