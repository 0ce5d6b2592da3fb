package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/money"
	"github.com/csg33k/tss-payroll/internal/payroll"
)

type computeRequest struct {
	EmployeeID      string             `json:"employeeId" validate:"required"`
	Period          domain.Period      `json:"period"`
	BaseSalary      decimal.Decimal    `json:"baseSalary"`
	Bonuses         []domain.Bonus     `json:"bonuses" validate:"dive"`
	Deductions      []domain.Deduction `json:"deductions" validate:"dive"`
	RiskFactor      *decimal.Decimal   `json:"riskFactor,omitempty"`
	Approve         bool               `json:"approve"`
	AllowViolations bool               `json:"allowViolations"`
}

type computeResponse struct {
	Line       *domain.PayrollLine       `json:"line"`
	Validation *payroll.ValidationResult `json:"validation,omitempty"`
}

type validateRequest struct {
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Pension    decimal.Decimal `json:"pension"`
	Health     decimal.Decimal `json:"health"`
	IncomeTax  decimal.Decimal `json:"incomeTax"`
}

type payslipRequest struct {
	Line     domain.PayrollLine `json:"line"`
	Employee domain.Employee    `json:"employee"`
}

type errorResponse struct {
	Error    string           `json:"error"`
	Problems []tss.FieldError `json:"problems,omitempty"`
}

type artifactInfo struct {
	ID        string              `json:"id"`
	Kind      domain.ArtifactKind `json:"kind"`
	Filename  string              `json:"filename"`
	Period    string              `json:"period"`
	Lines     int                 `json:"lines"`
	Size      int                 `json:"size"`
	CreatedAt time.Time           `json:"createdAt"`
	URL       string              `json:"url"`
}

func infoOf(a *domain.Artifact) artifactInfo {
	return artifactInfo{
		ID:        a.ID,
		Kind:      a.Kind,
		Filename:  a.Filename,
		Period:    a.Period,
		Lines:     a.Lines,
		Size:      a.Size,
		CreatedAt: a.CreatedAt,
		URL:       "/exports/" + a.ID,
	}
}

// roundLine copies a computed line with every computed figure rounded for
// display. The engine's own line keeps full precision.
func roundLine(l *domain.PayrollLine) *domain.PayrollLine {
	out := *l
	out.EmployeeContributions = domain.EmployeeContributions{
		Pension: money.Round(l.EmployeeContributions.Pension),
		Health:  money.Round(l.EmployeeContributions.Health),
	}
	out.EmployerContributions = domain.EmployerContributions{
		Pension:      money.Round(l.EmployerContributions.Pension),
		Health:       money.Round(l.EmployerContributions.Health),
		TrainingLevy: money.Round(l.EmployerContributions.TrainingLevy),
		WorkRisk:     money.Round(l.EmployerContributions.WorkRisk),
	}
	out.IncomeTax = money.Round(l.IncomeTax)
	out.NetSalary = money.Round(l.NetSalary)
	return &out
}
