// Package pdf renders a single-employee payslip. The page shows the employer
// header, employee identity, the earnings and withholding breakdown of one
// payroll line, and the employer-side contributions for reference.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/money"
)

var ErrLineNotComputed = errors.New("payroll line has not been computed")

// Employer identifies the company on every payslip.
type Employer struct {
	Name string
	RNC  string
}

type PayslipGenerator struct {
	employer Employer
	now      func() time.Time
}

func NewPayslipGenerator(employer Employer) *PayslipGenerator {
	return &PayslipGenerator{employer: employer, now: time.Now}
}

// Generate renders one computed line. The employee record must be the one
// the line references.
func (g *PayslipGenerator) Generate(ctx context.Context, line *domain.PayrollLine, emp *domain.Employee) (*domain.Artifact, error) {
	if !line.Computed {
		return nil, errors.Wrapf(ErrLineNotComputed, "line %s", line.ID)
	}
	if emp == nil || emp.ID != line.EmployeeID {
		return nil, errors.Errorf("employee record for %s not supplied", line.EmployeeID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle("Volante de pago", true)
	pdf.AddPage()
	g.drawPayslip(pdf, line, emp)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render payslip")
	}

	start := line.Period.Start
	return &domain.Artifact{
		ID:        uuid.NewString(),
		Kind:      domain.KindPrintableDocument,
		Filename:  fmt.Sprintf("VOLANTE_%s_%s.pdf", emp.ID, start.Format("200601")),
		Period:    layout.Period(start),
		Lines:     1,
		Size:      buf.Len(),
		Content:   buf.Bytes(),
		CreatedAt: g.now().UTC(),
	}, nil
}

type amtRow struct {
	label  string
	amount decimal.Decimal
}

func (g *PayslipGenerator) drawPayslip(pdf *fpdf.Fpdf, line *domain.PayrollLine, emp *domain.Employee) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	marginL, marginT, marginR, marginB := pdf.GetMargins()
	contentW := pageW - marginL - marginR
	colHalf := contentW / 2

	// ── Header bar ───────────────────────────────────────────────────────────
	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(colHalf, 7, "VOLANTE DE PAGO", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(colHalf-4, 7, tr("Período "+layout.Date(line.Period.Start)+" - "+layout.Date(line.Period.End)), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y := marginT + 13

	// ── Employer section ─────────────────────────────────────────────────────
	y = section(pdf, marginL, y, contentW, "EMPLEADOR")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 6, tr(g.employer.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 6, "RNC: "+g.employer.RNC, "RB", 1, "R", false, 0, "")
	y += 10

	// ── Employee section ─────────────────────────────────────────────────────
	y = section(pdf, marginL, y, contentW, "EMPLEADO")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 6.5, tr(emp.Name), "L", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(colHalf, 6.5, tr("Cédula: "+formatCedula(emp.NationalID)), "R", 1, "R", false, 0, "")
	y += 6.5
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 5.5, tr(emp.Position), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 5.5, "Fecha de pago: "+layout.Date(line.Period.PayDate), "RB", 1, "R", false, 0, "")
	y += 10

	// ── Breakdown table ──────────────────────────────────────────────────────
	earnings := []amtRow{{"Salario base", line.BaseSalary}}
	for _, b := range line.Bonuses {
		earnings = append(earnings, amtRow{bonusLabel(b), b.Amount})
	}
	withholdings := []amtRow{
		{"AFP (pensiones)", line.EmployeeContributions.Pension},
		{"SFS (salud)", line.EmployeeContributions.Health},
		{"ISR (impuesto sobre la renta)", line.IncomeTax},
	}
	for _, d := range line.Deductions {
		withholdings = append(withholdings, amtRow{deductionLabel(d), d.Amount})
	}

	y = table(pdf, tr, marginL, y, contentW, "INGRESOS", earnings)
	y += 3
	y = table(pdf, tr, marginL, y, contentW, "DESCUENTOS", withholdings)
	y += 3

	pdf.SetFillColor(220, 240, 220)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW*0.6, 8, "SALARIO NETO", "1", 0, "L", true, 0, "")
	pdf.CellFormat(contentW*0.4, 8, tr(money.Display(line.NetSalary)), "1", 1, "R", true, 0, "")
	y += 13

	er := line.EmployerContributions
	table(pdf, tr, marginL, y, contentW, "APORTES DEL EMPLEADOR", []amtRow{
		{"AFP patronal", er.Pension},
		{"SFS patronal", er.Health},
		{"INFOTEP", er.TrainingLevy},
		{"SRL (riesgos laborales)", er.WorkRisk},
		{"Total", er.Total()},
	})

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.SetXY(marginL, pageH-marginB-6)
	pdf.SetFont("Helvetica", "I", 7.5)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(colHalf, 5, "Generado por tss-payroll", "", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 5, tr(g.employer.Name+" | RNC "+g.employer.RNC), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func section(pdf *fpdf.Fpdf, x, y, w float64, title string) float64 {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(x, y)
	pdf.CellFormat(w, 5.5, title, "LRT", 1, "L", true, 0, "")
	return y + 5.5
}

func table(pdf *fpdf.Fpdf, tr func(string) string, x, y, w float64, title string, rows []amtRow) float64 {
	descW := w * 0.6
	amtW := w - descW

	pdf.SetFillColor(30, 30, 30)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetXY(x, y)
	pdf.CellFormat(descW, 7, tr(title), "1", 0, "L", true, 0, "")
	pdf.CellFormat(amtW, 7, "Monto", "1", 1, "C", true, 0, "")
	y += 7
	pdf.SetTextColor(0, 0, 0)

	rowH := 6.5
	pdf.SetFont("Helvetica", "", 8.5)
	for i, r := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetXY(x, y)
		pdf.CellFormat(descW, rowH, tr(r.label), "1", 0, "L", true, 0, "")
		pdf.CellFormat(amtW, rowH, tr(money.Display(r.amount)), "1", 1, "R", true, 0, "")
		y += rowH
	}
	return y
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func bonusLabel(b domain.Bonus) string {
	label := map[domain.BonusType]string{
		domain.BonusOvertime:   "Horas extra",
		domain.BonusCommission: "Comisión",
	}[b.Type]
	if label == "" {
		label = "Otros ingresos"
	}
	if b.Description != "" {
		label += " (" + b.Description + ")"
	}
	return label
}

func deductionLabel(d domain.Deduction) string {
	label := map[domain.DeductionType]string{
		domain.DeductionLoan:    "Préstamo",
		domain.DeductionAdvance: "Avance",
	}[d.Type]
	if label == "" {
		label = "Otros descuentos"
	}
	if d.Description != "" {
		label += " (" + d.Description + ")"
	}
	return label
}

// formatCedula renders an 11-digit cédula as 000-0000000-0.
func formatCedula(id string) string {
	digits := layout.DigitsOnly(id)
	if len(digits) == 11 {
		return digits[:3] + "-" + digits[3:10] + "-" + digits[10:]
	}
	return id
}
