package tss_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func engine() *payroll.Engine {
	return payroll.NewEngine(taxconfig.MustForYear(2024), nil)
}

func newGenerator(t *testing.T, format tss.Format, sep layout.Separator) *tss.Generator {
	t.Helper()
	g, err := tss.New(engine(), tss.Settings{
		EmployerRNC: "1-01-23456-7",
		Format:      format,
		Separator:   sep,
	}, nil)
	require.NoError(t, err)
	return g
}

// sampleBatch builds a two-employee batch for the second half of March 2024
// and runs every line through the engine so it is approved.
func sampleBatch(t *testing.T) *domain.PayrollBatch {
	t.Helper()
	e := engine()
	period := domain.Period{Start: day(2024, 3, 15), End: day(2024, 3, 31), PayDate: day(2024, 3, 31)}
	left := day(2024, 3, 31)

	employees := []domain.Employee{
		{
			ID: "emp-1", Name: "Ana Pérez", NationalID: "001-1234567-8", Position: "Contadora",
			BaseSalary: decimal.RequireFromString("50000"), HireDate: day(2020, 1, 15),
			Status: domain.EmployeeActive, ContractType: domain.ContractPermanent,
		},
		{
			ID: "emp-2", Name: "luis gómez", NationalID: "402-9876543-2", Position: "Director",
			BaseSalary: decimal.RequireFromString("400000"), HireDate: day(2023, 6, 1), TerminationDate: &left,
			Status: domain.EmployeeInactive, ContractType: domain.ContractTemporary,
		},
	}

	var lines []domain.PayrollLine
	for _, emp := range employees {
		var bonuses []domain.Bonus
		if emp.ID == "emp-2" {
			bonuses = []domain.Bonus{{Type: domain.BonusCommission, Amount: decimal.RequireFromString("12500.505")}}
		}
		line := payroll.NewLine(emp.ID, period, emp.BaseSalary, bonuses, nil)
		require.NoError(t, e.Compute(line))
		_, err := e.Approve(line, payroll.ApproveOptions{})
		require.NoError(t, err)
		require.Equal(t, domain.LineApproved, line.Status)
		lines = append(lines, *line)
	}
	return &domain.PayrollBatch{Lines: lines, Employees: employees}
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

func TestNew_Defaults(t *testing.T) {
	g, err := tss.New(engine(), tss.Settings{EmployerRNC: "101234567"}, nil)
	require.NoError(t, err)
	s := g.Settings()
	assert.Equal(t, tss.FormatText, s.Format)
	assert.Equal(t, layout.Tab, s.Separator)
	assert.Equal(t, "N", s.PayrollType)
}

func TestNew_RejectsBadSettings(t *testing.T) {
	_, err := tss.New(engine(), tss.Settings{}, nil)
	assert.Error(t, err, "missing RNC")

	_, err = tss.New(engine(), tss.Settings{EmployerRNC: "101234567", Format: "pdf"}, nil)
	assert.Error(t, err, "unknown format")
}

// ---------------------------------------------------------------------------
// Text format
// ---------------------------------------------------------------------------

func TestGenerate_TextRoundTrip(t *testing.T) {
	for _, sep := range []layout.Separator{layout.Tab, layout.Comma} {
		t.Run(sep.String(), func(t *testing.T) {
			g := newGenerator(t, tss.FormatText, sep)
			batch := sampleBatch(t)

			a, err := g.Generate(context.Background(), batch)
			require.NoError(t, err)
			assert.Equal(t, domain.KindDelimitedText, a.Kind)
			assert.Equal(t, "TSS_101234567_202403.txt", a.Filename)
			assert.Equal(t, "03/2024", a.Period)
			assert.Equal(t, 2, a.Lines)
			assert.NotEmpty(t, a.ID)

			period, rows, err := layout.ReadText(bytes.NewReader(a.Content), sep)
			require.NoError(t, err)
			assert.Equal(t, "03/2024", period)
			require.Len(t, rows, len(batch.Lines))

			for i, r := range rows {
				emp := batch.Employees[i]
				line := batch.Lines[i]
				assert.Equal(t, layout.DigitsOnly(emp.NationalID), r.NationalID)
				assert.Equal(t, line.BaseSalary.StringFixed(2), r.Salary)
				assert.Equal(t, 17, r.WorkedDays)
			}
		})
	}
}

func TestGenerate_RowContents(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	a, err := g.Generate(context.Background(), sampleBatch(t))
	require.NoError(t, err)

	_, rows, err := layout.ReadText(bytes.NewReader(a.Content), layout.Tab)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, layout.Row{
		RNC: "101234567", NationalID: "00112345678", Name: "ANA PÉREZ", Salary: "50000.00",
		WorkedDays: 17, PensionCotizable: "50000.00", HealthCotizable: "50000.00", Bonuses: "0.00",
		ContractCode: "01", HireDate: "15/01/2020", TerminationDate: "", PayrollType: "N",
	}, rows[0])

	assert.Equal(t, layout.Row{
		RNC: "101234567", NationalID: "40298765432", Name: "LUIS GÓMEZ", Salary: "400000.00",
		WorkedDays: 17, PensionCotizable: "387050.00", HealthCotizable: "193525.00", Bonuses: "12500.51",
		ContractCode: "02", HireDate: "01/06/2023", TerminationDate: "31/03/2024", PayrollType: "N",
	}, rows[1])
}

func TestGenerate_TerminationDateOnlyForInactive(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Employees[1].Status = domain.EmployeeActive

	a, err := g.Generate(context.Background(), batch)
	require.NoError(t, err)
	_, rows, err := layout.ReadText(bytes.NewReader(a.Content), layout.Tab)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[1].TerminationDate, "active employee keeps a blank termination cell")
}

func TestGenerate_InactiveWithoutTerminationDate(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Employees[1].TerminationDate = nil

	a, err := g.Generate(context.Background(), batch)
	require.Nil(t, a)
	var be *tss.BatchError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Problems, 1)
	assert.Equal(t, "emp-2", be.Problems[0].EmployeeID)
	assert.Equal(t, "terminationDate", be.Problems[0].Field)
}

// ---------------------------------------------------------------------------
// Spreadsheet format
// ---------------------------------------------------------------------------

func TestGenerate_WorkbookRoundTrip(t *testing.T) {
	g := newGenerator(t, tss.FormatSpreadsheet, 0)
	batch := sampleBatch(t)

	a, err := g.Generate(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSpreadsheet, a.Kind)
	assert.Equal(t, "TSS_101234567_202403.xlsx", a.Filename)

	period, rows, err := layout.ReadWorkbook(a.Content)
	require.NoError(t, err)
	assert.Equal(t, "03/2024", period)
	require.Len(t, rows, 2)
	assert.Equal(t, "00112345678", rows[0].NationalID)
	assert.Equal(t, "400000.00", rows[1].Salary)
	assert.Equal(t, "387050.00", rows[1].PensionCotizable)
	assert.Equal(t, 17, rows[1].WorkedDays)
}

// ---------------------------------------------------------------------------
// Rejection
// ---------------------------------------------------------------------------

func TestGenerate_MissingNationalIDRejectsBatch(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Employees[1].NationalID = ""

	a, err := g.Generate(context.Background(), batch)
	require.Error(t, err)
	assert.Nil(t, a, "no artifact on failure")
	assert.True(t, errors.Is(err, tss.ErrBatchRejected))
	assert.Contains(t, err.Error(), "luis gómez")
	assert.Contains(t, err.Error(), "national ID is missing")

	var be *tss.BatchError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Problems, 1)
	assert.Equal(t, "emp-2", be.Problems[0].EmployeeID)
	assert.Equal(t, "nationalId", be.Problems[0].Field)
}

func TestGenerate_EnumeratesEveryProblem(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Employees[0].HireDate = time.Time{}
	batch.Employees[0].NationalID = "--"
	batch.Lines[1].EmployeeID = "ghost"

	_, err := g.Generate(context.Background(), batch)
	var be *tss.BatchError
	require.True(t, errors.As(err, &be))

	fields := make([]string, 0, len(be.Problems))
	for _, p := range be.Problems {
		fields = append(fields, p.EmployeeID+"/"+p.Field)
	}
	assert.ElementsMatch(t, []string{
		"emp-1/nationalId",
		"emp-1/hireDate",
		"ghost/employeeId",
	}, fields)
}

func TestGenerate_RejectsUnapprovedAndMixedPeriods(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Lines[0].Status = domain.LinePending
	batch.Lines[1].Period.Start = day(2024, 4, 1)
	batch.Lines[1].Period.End = day(2024, 4, 30)

	_, err := g.Generate(context.Background(), batch)
	var be *tss.BatchError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Problems, 2)
	assert.Equal(t, "status", be.Problems[0].Field)
	assert.Equal(t, "period", be.Problems[1].Field)
}

func TestGenerate_RejectsDuplicateEmployee(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Lines = append(batch.Lines, batch.Lines[0])

	_, err := g.Generate(context.Background(), batch)
	var be *tss.BatchError
	require.True(t, errors.As(err, &be))
	require.Len(t, be.Problems, 1)
	assert.Contains(t, be.Problems[0].Message, "more than once")
}

func TestGenerate_EmptyBatch(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	_, err := g.Generate(context.Background(), &domain.PayrollBatch{})
	assert.True(t, errors.Is(err, tss.ErrBatchRejected))
}

func TestGenerate_NilBatch(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	var a *domain.Artifact
	var err error
	require.NotPanics(t, func() { a, err = g.Generate(context.Background(), nil) })
	assert.Nil(t, a)
	var be *tss.BatchError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "lines", be.Problems[0].Field)
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestExport_StateTransitions(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	x := g.NewExport(sampleBatch(t))
	assert.Equal(t, tss.Draft, x.State())

	_, err := x.Serialize(context.Background())
	assert.True(t, errors.Is(err, tss.ErrInvalidState), "serialize before validate")

	require.NoError(t, x.Validate())
	assert.Equal(t, tss.Validated, x.State())
	assert.True(t, errors.Is(x.Validate(), tss.ErrInvalidState), "validate twice")

	a, err := x.Serialize(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, tss.Serialized, x.State())

	_, err = x.Serialize(context.Background())
	assert.True(t, errors.Is(err, tss.ErrInvalidState), "serialize twice")
}

func TestExport_RejectedIsTerminal(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	batch := sampleBatch(t)
	batch.Employees[0].NationalID = ""

	x := g.NewExport(batch)
	require.Error(t, x.Validate())
	assert.Equal(t, tss.Rejected, x.State())
	assert.True(t, errors.Is(x.Err(), tss.ErrBatchRejected))

	a, err := x.Serialize(context.Background())
	assert.Nil(t, a)
	assert.True(t, errors.Is(err, tss.ErrInvalidState))
}

func TestExport_CancelledContext(t *testing.T) {
	g := newGenerator(t, tss.FormatText, layout.Tab)
	x := g.NewExport(sampleBatch(t))
	require.NoError(t, x.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a, err := x.Serialize(ctx)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, tss.Validated, x.State())
}
