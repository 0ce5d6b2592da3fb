// Package xlsx builds the internal payroll summary workbook: one sheet with a
// row per payroll line and one with period totals. It is not sent to any
// authority.
package xlsx

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/money"
)

const (
	SummarySheet = "Resumen"
	TotalsSheet  = "Totales"
)

// ErrLineNotComputed is returned when a batch line has no engine figures yet.
var ErrLineNotComputed = errors.New("payroll line has not been computed")

// SummaryColumns is the header row of the summary sheet.
var SummaryColumns = []string{
	"Empleado", "Cédula", "Salario Base", "Bonificaciones", "Deducciones",
	"AFP", "SFS", "ISR",
	"AFP Patronal", "SFS Patronal", "INFOTEP", "SRL",
	"Salario Neto",
}

type ReportGenerator struct {
	now func() time.Time
}

func NewReportGenerator() *ReportGenerator {
	return &ReportGenerator{now: time.Now}
}

type amounts struct {
	base, bonuses, deductions      decimal.Decimal
	pension, health, tax           decimal.Decimal
	erPension, erHealth, levy, srl decimal.Decimal
	net                            decimal.Decimal
}

func lineAmounts(l *domain.PayrollLine) amounts {
	return amounts{
		base:       l.BaseSalary,
		bonuses:    l.TotalBonuses(),
		deductions: l.TotalDeductions(),
		pension:    l.EmployeeContributions.Pension,
		health:     l.EmployeeContributions.Health,
		tax:        l.IncomeTax,
		erPension:  l.EmployerContributions.Pension,
		erHealth:   l.EmployerContributions.Health,
		levy:       l.EmployerContributions.TrainingLevy,
		srl:        l.EmployerContributions.WorkRisk,
		net:        l.NetSalary,
	}
}

func (a amounts) add(b amounts) amounts {
	return amounts{
		base:       a.base.Add(b.base),
		bonuses:    a.bonuses.Add(b.bonuses),
		deductions: a.deductions.Add(b.deductions),
		pension:    a.pension.Add(b.pension),
		health:     a.health.Add(b.health),
		tax:        a.tax.Add(b.tax),
		erPension:  a.erPension.Add(b.erPension),
		erHealth:   a.erHealth.Add(b.erHealth),
		levy:       a.levy.Add(b.levy),
		srl:        a.srl.Add(b.srl),
		net:        a.net.Add(b.net),
	}
}

func (a amounts) list() []decimal.Decimal {
	return []decimal.Decimal{
		a.base, a.bonuses, a.deductions,
		a.pension, a.health, a.tax,
		a.erPension, a.erHealth, a.levy, a.srl,
		a.net,
	}
}

// Generate writes the summary workbook for a batch of computed lines.
// Lines whose employee is not in the batch are listed by employee ID.
func (r *ReportGenerator) Generate(ctx context.Context, batch *domain.PayrollBatch) (*domain.Artifact, error) {
	if batch == nil || len(batch.Lines) == 0 {
		return nil, errors.New("report needs at least one payroll line")
	}
	for i := range batch.Lines {
		if !batch.Lines[i].Computed {
			return nil, errors.Wrapf(ErrLineNotComputed, "line %s", batch.Lines[i].ID)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	numFmt, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	// ── Resumen ──────────────────────────────────────────────────────────────
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	header := make([]any, len(SummaryColumns))
	for i, c := range SummaryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, bold); err != nil {
		return nil, err
	}

	employees := batch.EmployeeByID()
	var total amounts
	for i := range batch.Lines {
		l := &batch.Lines[i]
		name, nid := l.EmployeeID, ""
		if emp, ok := employees[l.EmployeeID]; ok {
			name, nid = emp.Name, emp.NationalID
		}
		a := lineAmounts(l)
		if i == 0 {
			total = a
		} else {
			total = total.add(a)
		}

		row := []any{name, nid}
		for _, v := range a.list() {
			row = append(row, money.Round(v).InexactFloat64())
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "summary row %d", i+1)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(SummaryColumns), len(batch.Lines)+1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SummarySheet, "C2", last, numFmt); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SummarySheet, "B", "M", 15); err != nil {
		return nil, err
	}

	// ── Totales ──────────────────────────────────────────────────────────────
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(TotalsSheet, "A1", &[]any{"Concepto", "Monto"}); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(TotalsSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, v := range total.list() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(TotalsSheet, cell, &[]any{SummaryColumns[i+2], money.Round(v).InexactFloat64()}); err != nil {
			return nil, err
		}
	}
	n := len(total.list())
	if err := f.SetSheetRow(TotalsSheet, fmt.Sprintf("A%d", n+2), &[]any{"Empleados", len(batch.Lines)}); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(TotalsSheet, "B2", fmt.Sprintf("B%d", n+1), numFmt); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(TotalsSheet, "A", "B", 20); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write summary workbook")
	}

	start := batch.Lines[0].Period.Start
	return &domain.Artifact{
		ID:        uuid.NewString(),
		Kind:      domain.KindSpreadsheet,
		Filename:  fmt.Sprintf("NOMINA_%s_resumen.xlsx", start.Format("200601")),
		Period:    start.Format("01/2006"),
		Lines:     len(batch.Lines),
		Size:      buf.Len(),
		Content:   buf.Bytes(),
		CreatedAt: r.now().UTC(),
	}, nil
}
