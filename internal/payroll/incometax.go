package payroll

import (
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

// IncomeTax returns the withholding for a salary already net of employee
// social-security contributions. Income at or below zero owes nothing.
func (e *Engine) IncomeTax(salaryAfterSS decimal.Decimal) (decimal.Decimal, error) {
	if !salaryAfterSS.IsPositive() {
		return decimal.Zero, nil
	}
	b, ok := e.bracketFor(salaryAfterSS)
	if !ok {
		e.log.WithFields(logrus.Fields{
			"fiscal_year": e.cfg.FiscalYear,
			"source":      e.cfg.Source,
			"income":      salaryAfterSS.String(),
		}).Error("income tax scale does not cover income")
		return decimal.Zero, errors.Wrapf(ErrNoBracket, "income %s, fiscal year %d", salaryAfterSS, e.cfg.FiscalYear)
	}
	return b.Tax(salaryAfterSS), nil
}

// bracketFor binary-searches the ordered scale for the first bracket whose
// upper bound reaches income.
func (e *Engine) bracketFor(income decimal.Decimal) (taxconfig.Bracket, bool) {
	bs := e.cfg.Brackets
	i := sort.Search(len(bs), func(i int) bool {
		return bs[i].Upper == nil || bs[i].Upper.GreaterThanOrEqual(income)
	})
	if i == len(bs) || !bs[i].Contains(income) {
		return taxconfig.Bracket{}, false
	}
	return bs[i], true
}
