package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractType is the employment contract classification reported to the authority.
type ContractType string

const (
	ContractPermanent    ContractType = "permanent"
	ContractTemporary    ContractType = "temporary"
	ContractProjectBased ContractType = "project_based"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
)

// Employee is owned by the employee-management collaborator and consumed read-only.
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NationalID string `json:"nationalId"` // cédula; may carry dashes
	Position   string `json:"position"`

	BaseSalary      decimal.Decimal `json:"baseSalary"`
	HireDate        time.Time       `json:"hireDate"`
	TerminationDate *time.Time      `json:"terminationDate,omitempty"`
	Status          EmployeeStatus  `json:"status"`
	ContractType    ContractType    `json:"contractType"`
}

type BonusType string

const (
	BonusOvertime   BonusType = "overtime"
	BonusCommission BonusType = "commission"
	BonusOther      BonusType = "other"
)

type Bonus struct {
	Type        BonusType       `json:"type" validate:"oneof=overtime commission other"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type DeductionType string

const (
	DeductionLoan    DeductionType = "loan"
	DeductionAdvance DeductionType = "advance"
	DeductionOther   DeductionType = "other"
)

type Deduction struct {
	Type        DeductionType   `json:"type" validate:"oneof=loan advance other"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Period is a pay period. Start and End are inclusive calendar days.
type Period struct {
	Start   time.Time `json:"start" validate:"required"`
	End     time.Time `json:"end" validate:"required,gtefield=Start"`
	PayDate time.Time `json:"payDate"`
}

// EmployeeContributions are the social-security amounts withheld from the employee.
type EmployeeContributions struct {
	Pension decimal.Decimal `json:"pension"`
	Health  decimal.Decimal `json:"health"`
}

func (c EmployeeContributions) Total() decimal.Decimal {
	return c.Pension.Add(c.Health)
}

// EmployerContributions are the amounts matched by the employer.
type EmployerContributions struct {
	Pension      decimal.Decimal `json:"pension"`
	Health       decimal.Decimal `json:"health"`
	TrainingLevy decimal.Decimal `json:"trainingLevy"`
	WorkRisk     decimal.Decimal `json:"workRisk"`
}

func (c EmployerContributions) Total() decimal.Decimal {
	return c.Pension.Add(c.Health).Add(c.TrainingLevy).Add(c.WorkRisk)
}

type LineStatus string

const (
	LinePending  LineStatus = "pending"
	LineApproved LineStatus = "approved"
	LineRejected LineStatus = "rejected"
)

// PayrollLine is one employee's payroll for one period. Computed fields are
// zero until the engine fills them and are frozen once the line is approved.
type PayrollLine struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	Period     Period          `json:"period"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
	Bonuses    []Bonus         `json:"bonuses"`
	Deductions []Deduction     `json:"deductions"`

	EmployeeContributions EmployeeContributions `json:"employeeContributions"`
	EmployerContributions EmployerContributions `json:"employerContributions"`
	IncomeTax             decimal.Decimal       `json:"incomeTax"`
	NetSalary             decimal.Decimal       `json:"netSalary"`
	Computed              bool                  `json:"computed"`

	Status LineStatus `json:"status"`
}

func (l *PayrollLine) TotalBonuses() decimal.Decimal {
	total := decimal.Zero
	for _, b := range l.Bonuses {
		total = total.Add(b.Amount)
	}
	return total
}

func (l *PayrollLine) TotalDeductions() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l.Deductions {
		total = total.Add(d.Amount)
	}
	return total
}

// PayrollBatch is the transient input to export: approved lines of one
// period plus the employee records they reference.
type PayrollBatch struct {
	Lines     []PayrollLine `json:"lines"`
	Employees []Employee    `json:"employees"`
}

// EmployeeByID indexes the batch employees. Later duplicates win.
func (b *PayrollBatch) EmployeeByID() map[string]*Employee {
	out := make(map[string]*Employee, len(b.Employees))
	for i := range b.Employees {
		out[b.Employees[i].ID] = &b.Employees[i]
	}
	return out
}

// ArtifactKind is the MIME-equivalent kind of a generated file.
type ArtifactKind string

const (
	KindDelimitedText     ArtifactKind = "delimited-text"
	KindSpreadsheet       ArtifactKind = "spreadsheet"
	KindPrintableDocument ArtifactKind = "printable-document"
)

// ContentType returns the HTTP content type for the kind.
func (k ArtifactKind) ContentType() string {
	switch k {
	case KindDelimitedText:
		return "text/plain; charset=utf-8"
	case KindSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindPrintableDocument:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Artifact is a generated file handed back to the caller for delivery.
type Artifact struct {
	ID        string
	Kind      ArtifactKind
	Filename  string
	Period    string // MM/YYYY
	Lines     int
	Size      int // bytes; set even when Content is not loaded
	Content   []byte
	CreatedAt time.Time
}
