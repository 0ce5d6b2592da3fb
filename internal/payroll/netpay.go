package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/domain"
)

// NetPay is the full breakdown of one resolution. Amounts are unrounded.
type NetPay struct {
	Gross                     decimal.Decimal              `json:"gross"`
	Bonuses                   decimal.Decimal              `json:"bonuses"`
	Deductions                decimal.Decimal              `json:"deductions"`
	Employee                  domain.EmployeeContributions `json:"employeeContributions"`
	Employer                  domain.EmployerContributions `json:"employerContributions"`
	SalaryAfterSocialSecurity decimal.Decimal              `json:"salaryAfterSocialSecurity"`
	IncomeTax                 decimal.Decimal              `json:"incomeTax"`
	Net                       decimal.Decimal              `json:"net"`
}

// ResolveNetPay composes the contribution and income-tax calculators.
// Only the base salary is contribution and tax base; bonuses are added
// after withholding.
func (e *Engine) ResolveNetPay(baseSalary decimal.Decimal, bonuses []domain.Bonus, deductions []domain.Deduction, opts ...Option) (NetPay, error) {
	emp := e.EmployeeContributions(baseSalary)
	afterSS := baseSalary.Sub(emp.Pension).Sub(emp.Health)
	tax, err := e.IncomeTax(afterSS)
	if err != nil {
		return NetPay{}, err
	}

	bonusTotal := decimal.Zero
	for _, b := range bonuses {
		bonusTotal = bonusTotal.Add(b.Amount)
	}
	deductionTotal := decimal.Zero
	for _, d := range deductions {
		deductionTotal = deductionTotal.Add(d.Amount)
	}

	return NetPay{
		Gross:                     baseSalary,
		Bonuses:                   bonusTotal,
		Deductions:                deductionTotal,
		Employee:                  emp,
		Employer:                  e.EmployerContributions(baseSalary, opts...),
		SalaryAfterSocialSecurity: afterSS,
		IncomeTax:                 tax,
		Net:                       afterSS.Add(bonusTotal).Sub(deductionTotal).Sub(tax),
	}, nil
}
