package templates

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/money"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

type parameterRow struct {
	label, value string
}

// parameterRows lists the rates and caps shown on the index page.
func parameterRows(cfg *taxconfig.Configuration) []parameterRow {
	return []parameterRow{
		{"AFP empleado", percent(cfg.Employee.Pension)},
		{"SFS empleado", percent(cfg.Employee.Health)},
		{"AFP empleador", percent(cfg.Employer.Pension)},
		{"SFS empleador", percent(cfg.Employer.Health)},
		{"INFOTEP", percent(cfg.Employer.TrainingLevy)},
		{"SRL (base + variable)", percent(cfg.WorkRiskRate(cfg.Employer.WorkRiskVariable))},
		{"Tope AFP", amountDisplay(cfg.Caps.Pension)},
		{"Tope SFS", amountDisplay(cfg.Caps.Health)},
		{"Tope SRL", amountDisplay(cfg.Caps.WorkRisk)},
	}
}

func exportURL(id string) string {
	return "/exports/" + id
}

// amountDisplay renders an amount with currency symbol and grouping.
func amountDisplay(d decimal.Decimal) string {
	return money.Display(d)
}

// percent renders a rate such as 0.0287 as "2.87%".
func percent(rate decimal.Decimal) string {
	return rate.Shift(2).StringFixed(2) + "%"
}

// sizeDisplay renders a byte count as B, KB or MB.
func sizeDisplay(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func timeDisplay(t time.Time) string {
	return t.Local().Format("02/01/2006 15:04")
}
