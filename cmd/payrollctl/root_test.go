package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TAX_YEAR", "2024")
	t.Setenv("TAX_CONFIG_PATH", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func sampleRows() []layout.Row {
	return []layout.Row{{
		RNC: "101234567", NationalID: "00112345678", Name: "ANA PÉREZ", Salary: "50000.00",
		WorkedDays: 31, PensionCotizable: "50000.00", HealthCotizable: "50000.00", Bonuses: "0.00",
		ContractCode: "01", HireDate: "15/01/2020", PayrollType: "N",
	}}
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func TestValidateCmd_Violations(t *testing.T) {
	out, err := run(t, "validate", "--salary", "10000", "--pension", "12000", "--health", "6000", "--tax", "5000")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errCeilingViolations))

	var res payroll.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}

func TestValidateCmd_Valid(t *testing.T) {
	out, err := run(t, "validate", "--salary", "50000", "--pension", "1435", "--health", "1520")
	require.NoError(t, err)

	var res payroll.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
}

// ---------------------------------------------------------------------------
// verify
// ---------------------------------------------------------------------------

func TestVerifyCmd_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TSS_101234567_202403.txt")
	var buf bytes.Buffer
	require.NoError(t, layout.WriteText(&buf, "03/2024", layout.Comma, sampleRows()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, err := run(t, "verify", path, "--separator", "comma", "--rows")
	require.NoError(t, err)

	var got verifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "03/2024", got.Period)
	assert.Equal(t, 1, got.Rows)
	assert.Equal(t, sampleRows(), got.Data)
}

func TestVerifyCmd_Workbook(t *testing.T) {
	data, err := layout.WriteWorkbook("03/2024", sampleRows())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "TSS_101234567_202403.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := run(t, "verify", path)
	require.NoError(t, err)

	var got verifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "03/2024", got.Period)
	assert.Equal(t, 1, got.Rows)
	assert.Empty(t, got.Data, "rows only printed with --rows")
}

func TestVerifyCmd_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a period line\n"), 0o644))

	_, err := run(t, "verify", path)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func TestExportCmd_FormatFromConfiguration(t *testing.T) {
	e := payroll.NewEngine(taxconfig.MustForYear(2024), nil)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	emp := domain.Employee{
		ID: "emp-1", Name: "Ana Pérez", NationalID: "001-1234567-8",
		BaseSalary: decimal.RequireFromString("50000"), HireDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		Status: domain.EmployeeActive, ContractType: domain.ContractPermanent,
	}
	line := payroll.NewLine(emp.ID, domain.Period{Start: day(1), End: day(31), PayDate: day(31)}, emp.BaseSalary, nil, nil)
	require.NoError(t, e.Compute(line))
	_, err := e.Approve(line, payroll.ApproveOptions{})
	require.NoError(t, err)

	dir := t.TempDir()
	batchPath := filepath.Join(dir, "batch.json")
	data, err := json.Marshal(domain.PayrollBatch{Lines: []domain.PayrollLine{*line}, Employees: []domain.Employee{emp}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(batchPath, data, 0o644))

	t.Setenv("EXPORT_FORMAT", "xlsx")
	t.Setenv("EMPLOYER_RNC", "101234567")
	out, err := run(t, "export", "--batch", batchPath, "--out", dir)
	require.NoError(t, err)

	var got artifactOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.KindSpreadsheet, got.Kind)
	assert.Equal(t, filepath.Join(dir, "TSS_101234567_202403.xlsx"), got.Path)
	assert.FileExists(t, got.Path)
}
