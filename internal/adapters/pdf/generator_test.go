package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/adapters/pdf"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

func fixture(t *testing.T) (*domain.PayrollLine, *domain.Employee) {
	t.Helper()
	emp := &domain.Employee{
		ID: "emp-1", Name: "José Núñez", NationalID: "00112345678", Position: "Analista",
		ContractType: domain.ContractPermanent,
	}
	period := domain.Period{
		Start:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		PayDate: time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC),
	}
	line := payroll.NewLine(emp.ID, period, decimal.RequireFromString("85000"),
		[]domain.Bonus{{Type: domain.BonusOvertime, Amount: decimal.RequireFromString("4200"), Description: "cierre"}},
		[]domain.Deduction{{Type: domain.DeductionLoan, Amount: decimal.RequireFromString("3000")}})
	require.NoError(t, payroll.NewEngine(taxconfig.MustForYear(2024), nil).Compute(line))
	return line, emp
}

func TestPayslip_Generate(t *testing.T) {
	line, emp := fixture(t)
	g := pdf.NewPayslipGenerator(pdf.Employer{Name: "Compañía Ejemplo SRL", RNC: "101234567"})

	a, err := g.Generate(context.Background(), line, emp)
	require.NoError(t, err)
	assert.Equal(t, domain.KindPrintableDocument, a.Kind)
	assert.Equal(t, "VOLANTE_emp-1_202403.pdf", a.Filename)
	assert.Equal(t, "03/2024", a.Period)
	assert.True(t, bytes.HasPrefix(a.Content, []byte("%PDF-")))
	assert.Greater(t, len(a.Content), 500)
}

func TestPayslip_RequiresComputedLine(t *testing.T) {
	line, emp := fixture(t)
	line.Computed = false

	a, err := pdf.NewPayslipGenerator(pdf.Employer{}).Generate(context.Background(), line, emp)
	assert.Nil(t, a)
	assert.True(t, errors.Is(err, pdf.ErrLineNotComputed))
}

func TestPayslip_RequiresMatchingEmployee(t *testing.T) {
	line, _ := fixture(t)
	other := &domain.Employee{ID: "emp-2", Name: "Otra Persona"}

	_, err := pdf.NewPayslipGenerator(pdf.Employer{}).Generate(context.Background(), line, other)
	assert.Error(t, err)

	_, err = pdf.NewPayslipGenerator(pdf.Employer{}).Generate(context.Background(), line, nil)
	assert.Error(t, err)
}
