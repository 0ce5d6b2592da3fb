package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/csg33k/tss-payroll/internal/money"
)

// ValidationResult lists every ceiling violation found. It is advisory:
// the approval workflow decides whether a violation blocks a line.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks computed figures against the configured ceilings. Stale or
// hand-edited numbers above the theoretical maxima are reported.
func (e *Engine) Validate(baseSalary, pension, health, incomeTax decimal.Decimal) ValidationResult {
	var errs []string

	maxPension := money.Round(e.cfg.MaxEmployeePension())
	maxHealth := money.Round(e.cfg.MaxEmployeeHealth())

	if pension.IsNegative() {
		errs = append(errs, fmt.Sprintf("pension contribution %s is negative", money.Format(pension)))
	} else if pension.GreaterThan(maxPension) {
		errs = append(errs, fmt.Sprintf("pension contribution %s exceeds the maximum of %s",
			money.Format(pension), money.Format(maxPension)))
	}
	if health.IsNegative() {
		errs = append(errs, fmt.Sprintf("health contribution %s is negative", money.Format(health)))
	} else if health.GreaterThan(maxHealth) {
		errs = append(errs, fmt.Sprintf("health contribution %s exceeds the maximum of %s",
			money.Format(health), money.Format(maxHealth)))
	}

	switch {
	case incomeTax.IsNegative():
		errs = append(errs, fmt.Sprintf("income tax %s is negative", money.Format(incomeTax)))
	case !baseSalary.IsPositive():
		if incomeTax.IsPositive() {
			errs = append(errs, fmt.Sprintf("income tax %s withheld from a non-positive salary", money.Format(incomeTax)))
		}
	default:
		rate := incomeTax.Div(baseSalary)
		if rate.GreaterThan(e.cfg.MaxEffectiveTaxRate) {
			errs = append(errs, fmt.Sprintf("effective tax rate %s%% exceeds the ceiling of %s%%",
				rate.Shift(2).StringFixed(2), e.cfg.MaxEffectiveTaxRate.Shift(2).StringFixed(2)))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
