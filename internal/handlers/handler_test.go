package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/adapters/pdf"
	"github.com/csg33k/tss-payroll/internal/adapters/sqlite"
	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/adapters/xlsx"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/handlers"
	"github.com/csg33k/tss-payroll/internal/metrics"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	srv     http.Handler
	engine  *payroll.Engine
	repo    *sqlite.Repository
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine := payroll.NewEngine(taxconfig.MustForYear(2024), nil)

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "tss.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(context.Background()))

	gen, err := tss.New(engine, tss.Settings{EmployerRNC: "101234567"}, nil)
	require.NoError(t, err)

	m := metrics.New()
	h := handlers.New(engine, handlers.Exporters{
		Submission: gen,
		Report:     xlsx.NewReportGenerator(),
		Payslip:    pdf.NewPayslipGenerator(pdf.Employer{Name: "Ejemplo SRL", RNC: "101234567"}),
	}, repo, m, nil)

	return &fixture{srv: h.Routes(), engine: engine, repo: repo, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func period() domain.Period {
	return domain.Period{
		Start:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		PayDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func approvedBatch(t *testing.T, e *payroll.Engine) domain.PayrollBatch {
	t.Helper()
	emp := domain.Employee{
		ID: "emp-1", Name: "Ana Pérez", NationalID: "001-1234567-8",
		BaseSalary: decimal.RequireFromString("50000"), HireDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
		Status: domain.EmployeeActive, ContractType: domain.ContractPermanent,
	}
	line := payroll.NewLine(emp.ID, period(), emp.BaseSalary, nil, nil)
	require.NoError(t, e.Compute(line))
	_, err := e.Approve(line, payroll.ApproveOptions{})
	require.NoError(t, err)
	return domain.PayrollBatch{Lines: []domain.PayrollLine{*line}, Employees: []domain.Employee{emp}}
}

// ---------------------------------------------------------------------------
// Payroll
// ---------------------------------------------------------------------------

func TestCompute(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/payroll/compute", map[string]any{
		"employeeId": "emp-1",
		"period":     period(),
		"baseSalary": "400000",
		"bonuses":    []map[string]any{{"type": "commission", "amount": "1000"}},
		"approve":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Line       domain.PayrollLine        `json:"line"`
		Validation *payroll.ValidationResult `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.LineApproved, resp.Line.Status)
	assert.Equal(t, "11108.34", resp.Line.EmployeeContributions.Pension.StringFixed(2))
	assert.Equal(t, "5883.16", resp.Line.EmployeeContributions.Health.StringFixed(2))
	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Valid)
}

func TestCompute_RejectsBadInput(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/payroll/compute", map[string]any{"baseSalary": "1000", "period": period()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing employee id")

	p := period()
	p.End = p.Start.AddDate(0, 0, -1)
	rec = f.do(t, http.MethodPost, "/payroll/compute", map[string]any{"employeeId": "e", "baseSalary": "1000", "period": p})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "period ends before start")

	rec = f.do(t, http.MethodPost, "/payroll/compute", map[string]any{
		"employeeId": "e", "baseSalary": "1000", "period": period(),
		"bonuses": []map[string]any{{"type": "gift", "amount": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown bonus type")
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/payroll/validate", map[string]any{
		"baseSalary": "10000", "pension": "12000", "health": "6000", "incomeTax": "5000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res payroll.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
}

// ---------------------------------------------------------------------------
// Exports
// ---------------------------------------------------------------------------

func TestExportSubmission_ArchivesAndDownloads(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/exports/submission", approvedBatch(t, f.engine))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "TSS_101234567_202403.txt")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Período: 03/2024\n"))

	_, rows, err := layout.ReadText(bytes.NewReader(rec.Body.Bytes()), layout.Tab)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 17, rows[0].WorkedDays)

	id := rec.Header().Get("X-Artifact-ID")
	require.NotEmpty(t, id)

	again := f.do(t, http.MethodGet, "/exports/"+id, nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, rec.Body.Bytes(), again.Body.Bytes())

	list := f.do(t, http.MethodGet, "/exports", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var infos []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0]["id"])
}

func TestExportSubmission_RejectedBatch(t *testing.T) {
	f := newFixture(t)
	batch := approvedBatch(t, f.engine)
	batch.Employees[0].NationalID = ""

	rec := f.do(t, http.MethodPost, "/exports/submission", batch)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Error    string           `json:"error"`
		Problems []tss.FieldError `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Ana Pérez")
	require.Len(t, resp.Problems, 1)
	assert.Equal(t, "nationalId", resp.Problems[0].Field)

	list, err := f.repo.ListArtifacts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "nothing archived on rejection")
}

func TestExportReportAndPayslip(t *testing.T) {
	f := newFixture(t)
	batch := approvedBatch(t, f.engine)

	rec := f.do(t, http.MethodPost, "/exports/report", batch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.KindSpreadsheet.ContentType(), rec.Header().Get("Content-Type"))

	rec = f.do(t, http.MethodPost, "/exports/payslip", map[string]any{
		"line":     batch.Lines[0],
		"employee": batch.Employees[0],
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestDeleteExport(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/exports/submission", approvedBatch(t, f.engine))
	id := rec.Header().Get("X-Artifact-ID")

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/exports/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/exports/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/exports/"+id, nil).Code)
}

// ---------------------------------------------------------------------------
// Pages and metrics
// ---------------------------------------------------------------------------

func TestIndex(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/exports/submission", approvedBatch(t, f.engine))

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Año fiscal 2024")
	assert.Contains(t, body, "2.87%")
	assert.Contains(t, body, "TSS_101234567_202403.txt")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/exports/submission", approvedBatch(t, f.engine))

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tss_exports_total{kind="submission",outcome="success"} 1`)
}

func TestMetricsEndpoint_LabelsByExportName(t *testing.T) {
	f := newFixture(t)
	batch := approvedBatch(t, f.engine)
	f.do(t, http.MethodPost, "/exports/report", batch)

	rejected := approvedBatch(t, f.engine)
	rejected.Employees[0].NationalID = ""
	f.do(t, http.MethodPost, "/exports/submission", rejected)

	body := f.do(t, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `tss_exports_total{kind="report",outcome="success"} 1`)
	assert.Contains(t, body, `tss_exports_total{kind="submission",outcome="rejected"} 1`)
	assert.NotContains(t, body, `kind="spreadsheet"`)
}
