package taxconfig

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfiguration marks a deployment defect in the tax tables.
var ErrInvalidConfiguration = errors.New("invalid tax configuration")

//go:embed years/*.toml
var builtin embed.FS

var validate = validator.New(validator.WithRequiredStructEnabled())

// file mirrors the TOML layout. Amounts stay strings until validated so
// they never pass through float64.
type file struct {
	FiscalYear          int    `toml:"fiscal_year" validate:"required,gte=2000,lte=2999"`
	MaxEffectiveTaxRate string `toml:"max_effective_tax_rate" validate:"required,numeric"`

	Employee struct {
		PensionRate string `toml:"pension_rate" validate:"required,numeric"`
		HealthRate  string `toml:"health_rate" validate:"required,numeric"`
	} `toml:"employee"`

	Employer struct {
		PensionRate          string `toml:"pension_rate" validate:"required,numeric"`
		HealthRate           string `toml:"health_rate" validate:"required,numeric"`
		TrainingLevyRate     string `toml:"training_levy_rate" validate:"required,numeric"`
		WorkRiskBaseRate     string `toml:"work_risk_base_rate" validate:"required,numeric"`
		WorkRiskVariableRate string `toml:"work_risk_variable_rate" validate:"required,numeric"`
	} `toml:"employer"`

	Caps struct {
		Pension  string `toml:"pension" validate:"required,numeric"`
		Health   string `toml:"health" validate:"required,numeric"`
		WorkRisk string `toml:"work_risk" validate:"required,numeric"`
	} `toml:"caps"`

	Brackets []fileBracket `toml:"income_tax_brackets" validate:"required,min=1,dive"`
}

type fileBracket struct {
	LowerBound   string `toml:"lower_bound" validate:"required,numeric"`
	UpperBound   string `toml:"upper_bound" validate:"omitempty,numeric"`
	MarginalRate string `toml:"marginal_rate" validate:"required,numeric"`
	FixedAmount  string `toml:"fixed_amount" validate:"required,numeric"`
	ExcessBase   string `toml:"excess_base" validate:"required,numeric"`
}

// Supported returns the built-in fiscal years, ascending.
func Supported() []int {
	entries, err := builtin.ReadDir("years")
	if err != nil {
		return nil
	}
	var years []int
	for _, e := range entries {
		y, err := strconv.Atoi(strings.TrimSuffix(e.Name(), ".toml"))
		if err == nil {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// ForYear returns the built-in configuration for a fiscal year.
func ForYear(year int) (*Configuration, error) {
	name := fmt.Sprintf("years/%d.toml", year)
	data, err := builtin.ReadFile(name)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "no built-in tables for fiscal year %d", year)
	}
	return Parse(data, "builtin:"+name)
}

// MustForYear is ForYear for process start-up and tests.
func MustForYear(year int) *Configuration {
	c, err := ForYear(year)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a fiscal-year TOML file from disk.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read tax configuration")
	}
	return Parse(data, path)
}

// Parse decodes and validates a fiscal-year TOML document.
func Parse(data []byte, source string) (*Configuration, error) {
	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%s: %v", source, err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%s: %v", source, err)
	}

	p := &parser{}
	c := &Configuration{
		FiscalYear:          f.FiscalYear,
		Source:              source,
		MaxEffectiveTaxRate: p.dec("max_effective_tax_rate", f.MaxEffectiveTaxRate),
		Employee: EmployeeRates{
			Pension: p.dec("employee.pension_rate", f.Employee.PensionRate),
			Health:  p.dec("employee.health_rate", f.Employee.HealthRate),
		},
		Employer: EmployerRates{
			Pension:          p.dec("employer.pension_rate", f.Employer.PensionRate),
			Health:           p.dec("employer.health_rate", f.Employer.HealthRate),
			TrainingLevy:     p.dec("employer.training_levy_rate", f.Employer.TrainingLevyRate),
			WorkRiskBase:     p.dec("employer.work_risk_base_rate", f.Employer.WorkRiskBaseRate),
			WorkRiskVariable: p.dec("employer.work_risk_variable_rate", f.Employer.WorkRiskVariableRate),
		},
		Caps: Caps{
			Pension:  p.dec("caps.pension", f.Caps.Pension),
			Health:   p.dec("caps.health", f.Caps.Health),
			WorkRisk: p.dec("caps.work_risk", f.Caps.WorkRisk),
		},
	}
	for i, fb := range f.Brackets {
		key := fmt.Sprintf("income_tax_brackets[%d]", i)
		b := Bracket{
			Lower:      p.dec(key+".lower_bound", fb.LowerBound),
			Rate:       p.dec(key+".marginal_rate", fb.MarginalRate),
			Fixed:      p.dec(key+".fixed_amount", fb.FixedAmount),
			ExcessBase: p.dec(key+".excess_base", fb.ExcessBase),
		}
		if fb.UpperBound != "" {
			u := p.dec(key+".upper_bound", fb.UpperBound)
			b.Upper = &u
		}
		c.Brackets = append(c.Brackets, b)
	}
	if len(p.problems) > 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%s: %s", source, strings.Join(p.problems, "; "))
	}
	if err := c.Check(); err != nil {
		return nil, errors.Wrap(err, source)
	}
	return c, nil
}

type parser struct{ problems []string }

func (p *parser) dec(key, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.problems = append(p.problems, fmt.Sprintf("%s: %v", key, err))
	}
	return d
}
