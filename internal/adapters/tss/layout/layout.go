// Package layout defines the monthly self-assessment file accepted by the
// social-security treasury (TSS). The text variant is a period line followed
// by a delimited table; the spreadsheet variant carries the same cells on a
// single sheet. Field order is fixed by the treasury and must not change.
package layout

import (
	"strings"
	"time"
	"unicode"

	"github.com/go-faster/errors"

	"github.com/csg33k/tss-payroll/internal/domain"
)

const (
	PeriodPrefix = "Período: "
	PeriodFormat = "01/2006"
	DateFormat   = "02/01/2006"

	SheetName = "TSS"

	DefaultPayrollType = "N"
)

type Separator rune

const (
	Tab   Separator = '\t'
	Comma Separator = ','
)

// ParseSeparator accepts the configuration names "tab" and "comma".
func ParseSeparator(s string) (Separator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tab":
		return Tab, nil
	case "comma":
		return Comma, nil
	}
	return 0, errors.Errorf("unknown separator %q (want tab or comma)", s)
}

func (s Separator) String() string {
	if s == Comma {
		return "comma"
	}
	return "tab"
}

// Row is one employee record. Every cell is already formatted; the csv tags
// double as the column header line.
type Row struct {
	RNC              string `csv:"RNC"`
	NationalID       string `csv:"CEDULA"`
	Name             string `csv:"NOMBRE"`
	Salary           string `csv:"SALARIO"`
	WorkedDays       int    `csv:"DIAS_TRABAJADOS"`
	PensionCotizable string `csv:"SALARIO_COTIZABLE_AFP"`
	HealthCotizable  string `csv:"SALARIO_COTIZABLE_SFS"`
	Bonuses          string `csv:"OTRAS_REMUNERACIONES"`
	ContractCode     string `csv:"TIPO_CONTRATO"`
	HireDate         string `csv:"FECHA_INGRESO"`
	TerminationDate  string `csv:"FECHA_SALIDA"`
	PayrollType      string `csv:"TIPO_NOMINA"`
}

// Columns is the header line in field order.
var Columns = []string{
	"RNC",
	"CEDULA",
	"NOMBRE",
	"SALARIO",
	"DIAS_TRABAJADOS",
	"SALARIO_COTIZABLE_AFP",
	"SALARIO_COTIZABLE_SFS",
	"OTRAS_REMUNERACIONES",
	"TIPO_CONTRATO",
	"FECHA_INGRESO",
	"FECHA_SALIDA",
	"TIPO_NOMINA",
}

func (r Row) cells() []any {
	return []any{
		r.RNC, r.NationalID, r.Name, r.Salary, r.WorkedDays,
		r.PensionCotizable, r.HealthCotizable, r.Bonuses,
		r.ContractCode, r.HireDate, r.TerminationDate, r.PayrollType,
	}
}

// ── Field codes ──────────────────────────────────────────────────────────────

var contractCodes = map[domain.ContractType]string{
	domain.ContractPermanent:    "01",
	domain.ContractTemporary:    "02",
	domain.ContractProjectBased: "03",
}

// ContractCode maps a contract type to its treasury code.
func ContractCode(t domain.ContractType) (string, bool) {
	c, ok := contractCodes[t]
	return c, ok
}

// ── Field formatting ─────────────────────────────────────────────────────────

// DigitsOnly strips dashes, spaces and any other formatting characters.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func Name(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

func Period(t time.Time) string {
	return t.Format(PeriodFormat)
}

// Header is the first line of the text variant, without line ending.
func Header(period time.Time) string {
	return PeriodPrefix + Period(period)
}

// WorkedDays counts calendar days from start to end, both inclusive. Times of
// day are ignored. An end before start yields zero.
func WorkedDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
