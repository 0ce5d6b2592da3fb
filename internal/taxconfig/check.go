package taxconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Check verifies the integrity invariants of the tables and reports every
// problem found. Exactly one bracket must match any non-negative income.
func (c *Configuration) Check() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	rates := map[string]decimal.Decimal{
		"employee pension rate":      c.Employee.Pension,
		"employee health rate":       c.Employee.Health,
		"employer pension rate":      c.Employer.Pension,
		"employer health rate":       c.Employer.Health,
		"training levy rate":         c.Employer.TrainingLevy,
		"work risk base rate":        c.Employer.WorkRiskBase,
		"work risk variable rate":    c.Employer.WorkRiskVariable,
		"maximum effective tax rate": c.MaxEffectiveTaxRate,
	}
	for _, name := range sortedKeys(rates) {
		if !isRate(rates[name]) {
			add("%s %s outside [0,1]", name, rates[name])
		}
	}
	if !c.Caps.Pension.IsPositive() {
		add("pension cap must be positive")
	}
	if !c.Caps.Health.IsPositive() {
		add("health cap must be positive")
	}
	if !c.Caps.WorkRisk.IsPositive() {
		add("work risk cap must be positive")
	}

	n := len(c.Brackets)
	if n == 0 {
		add("no income tax brackets")
	} else if !c.Brackets[0].Lower.IsZero() {
		add("first bracket starts at %s, want 0", c.Brackets[0].Lower)
	}
	for i, b := range c.Brackets {
		if !isRate(b.Rate) {
			add("bracket %d: marginal rate %s outside [0,1]", i, b.Rate)
		}
		if b.Fixed.IsNegative() {
			add("bracket %d: negative fixed amount", i)
		}
		if i == n-1 {
			if b.Upper != nil {
				add("bracket %d: top bracket must be open-ended", i)
			}
			continue
		}
		if b.Upper == nil {
			add("bracket %d: only the top bracket may be open-ended", i)
			continue
		}
		if !b.Upper.GreaterThan(b.Lower) {
			add("bracket %d: upper bound %s not above lower bound %s", i, *b.Upper, b.Lower)
		}
		next := c.Brackets[i+1]
		if !next.Lower.Equal(*b.Upper) {
			add("bracket %d: starts at %s, previous ends at %s", i+1, next.Lower, *b.Upper)
			continue
		}
		// tax must not drop when crossing into the next bracket
		if next.Tax(*b.Upper).LessThan(b.Tax(*b.Upper)) {
			add("bracket %d: tax decreases at boundary %s (%s -> %s)",
				i+1, *b.Upper, b.Tax(*b.Upper).StringFixed(2), next.Tax(*b.Upper).StringFixed(2))
		}
	}
	if n > 0 && c.Brackets[0].Tax(c.Brackets[0].Lower).IsNegative() {
		add("bracket 0: negative tax at zero income")
	}

	if len(problems) > 0 {
		return errors.Wrap(ErrInvalidConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func isRate(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
