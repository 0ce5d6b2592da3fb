package payroll

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/domain"
)

// NewLine creates a pending line with zero computed fields.
func NewLine(employeeID string, period domain.Period, baseSalary decimal.Decimal, bonuses []domain.Bonus, deductions []domain.Deduction) *domain.PayrollLine {
	return &domain.PayrollLine{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Period:     period,
		BaseSalary: baseSalary,
		Bonuses:    bonuses,
		Deductions: deductions,
		Status:     domain.LinePending,
	}
}

// Compute fills the computed fields of a pending line. Computing the same
// pending line again yields the same figures.
func (e *Engine) Compute(line *domain.PayrollLine, opts ...Option) error {
	if line.Status != domain.LinePending {
		return errors.Wrapf(ErrLineNotPending, "line %s is %s", line.ID, line.Status)
	}
	np, err := e.ResolveNetPay(line.BaseSalary, line.Bonuses, line.Deductions, opts...)
	if err != nil {
		return errors.Wrapf(err, "compute line %s", line.ID)
	}
	line.EmployeeContributions = np.Employee
	line.EmployerContributions = np.Employer
	line.IncomeTax = np.IncomeTax
	line.NetSalary = np.Net
	line.Computed = true
	return nil
}

type ApproveOptions struct {
	// AllowViolations approves the line even when the validator reports
	// ceiling violations. The violations are still returned.
	AllowViolations bool
}

// Approve validates a computed pending line and moves it to approved or
// rejected. Approved lines are frozen; corrections need a new line.
func (e *Engine) Approve(line *domain.PayrollLine, opts ApproveOptions) (ValidationResult, error) {
	if line.Status != domain.LinePending {
		return ValidationResult{}, errors.Wrapf(ErrLineNotPending, "line %s is %s", line.ID, line.Status)
	}
	if !line.Computed {
		return ValidationResult{}, errors.Wrapf(ErrLineNotComputed, "line %s", line.ID)
	}
	res := e.Validate(line.BaseSalary, line.EmployeeContributions.Pension, line.EmployeeContributions.Health, line.IncomeTax)
	if res.Valid || opts.AllowViolations {
		line.Status = domain.LineApproved
	} else {
		line.Status = domain.LineRejected
	}
	return res, nil
}
