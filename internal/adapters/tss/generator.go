// Package tss serializes an approved payroll batch into the monthly
// submission file for the social-security treasury.
package tss

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/logging"
	"github.com/csg33k/tss-payroll/internal/money"
	"github.com/csg33k/tss-payroll/internal/payroll"
)

type Format string

const (
	FormatText        Format = "text"
	FormatSpreadsheet Format = "xlsx"
)

// Settings are fixed per deployment. The output format is not a per-call
// choice.
type Settings struct {
	EmployerRNC string           `validate:"required,numeric,min=9,max=11"`
	Format      Format           `validate:"oneof=text xlsx"`
	Separator   layout.Separator `validate:"oneof=9 44"`
	PayrollType string           `validate:"required,alphanum,max=2"`
}

type Generator struct {
	engine   *payroll.Engine
	settings Settings
	log      logrus.FieldLogger
	now      func() time.Time
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func New(engine *payroll.Engine, settings Settings, log logrus.FieldLogger) (*Generator, error) {
	settings.EmployerRNC = layout.DigitsOnly(settings.EmployerRNC)
	if settings.Format == "" {
		settings.Format = FormatText
	}
	if settings.Separator == 0 {
		settings.Separator = layout.Tab
	}
	if settings.PayrollType == "" {
		settings.PayrollType = layout.DefaultPayrollType
	}
	if err := validate.Struct(settings); err != nil {
		return nil, errors.Wrap(err, "tss settings")
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Generator{engine: engine, settings: settings, log: log, now: time.Now}, nil
}

func (g *Generator) Settings() Settings { return g.settings }

// Generate runs a batch through validation and serialization in one call.
// On any failure no artifact is returned.
func (g *Generator) Generate(ctx context.Context, batch *domain.PayrollBatch) (*domain.Artifact, error) {
	x := g.NewExport(batch)
	if err := x.Validate(); err != nil {
		return nil, err
	}
	return x.Serialize(ctx)
}

// ---------------------------------------------------------------------------
// Export state machine
// ---------------------------------------------------------------------------

type State int

const (
	Draft State = iota
	Validated
	Serialized
	Rejected
)

func (s State) String() string {
	switch s {
	case Draft:
		return "draft"
	case Validated:
		return "validated"
	case Serialized:
		return "serialized"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Export walks one batch from Draft to Serialized, or to Rejected. It is not
// safe for concurrent use.
type Export struct {
	g      *Generator
	batch  *domain.PayrollBatch
	state  State
	period domain.Period
	rows   []layout.Row
	err    error
}

func (g *Generator) NewExport(batch *domain.PayrollBatch) *Export {
	return &Export{g: g, batch: batch, state: Draft}
}

func (x *Export) State() State { return x.state }

// Err returns the rejection cause once the export is Rejected.
func (x *Export) Err() error { return x.err }

// Validate checks every line and employee record and builds the rows. Every
// problem is collected; any problem rejects the whole batch.
func (x *Export) Validate() error {
	if x.state != Draft {
		return errors.Wrapf(ErrInvalidState, "validate from %s", x.state)
	}

	rows, problems := x.g.buildRows(x.batch)
	if len(problems) > 0 {
		x.state = Rejected
		x.err = &BatchError{Problems: problems}
		lines := 0
		if x.batch != nil {
			lines = len(x.batch.Lines)
		}
		x.g.log.WithFields(logrus.Fields{
			"lines":    lines,
			"problems": len(problems),
		}).Warn("submission batch rejected")
		return x.err
	}

	x.period = x.batch.Lines[0].Period
	x.rows = rows
	x.state = Validated
	return nil
}

// Serialize renders the validated rows. The artifact is built in memory and
// only returned once complete.
func (x *Export) Serialize(ctx context.Context) (*domain.Artifact, error) {
	if x.state != Validated {
		return nil, errors.Wrapf(ErrInvalidState, "serialize from %s", x.state)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := x.g.settings
	period := layout.Period(x.period.Start)

	var (
		content []byte
		kind    domain.ArtifactKind
		ext     string
	)
	switch s.Format {
	case FormatSpreadsheet:
		data, err := layout.WriteWorkbook(period, x.rows)
		if err != nil {
			return nil, errors.Wrap(err, "serialize workbook")
		}
		content, kind, ext = data, domain.KindSpreadsheet, "xlsx"
	default:
		var buf bytes.Buffer
		if err := layout.WriteText(&buf, period, s.Separator, x.rows); err != nil {
			return nil, errors.Wrap(err, "serialize text")
		}
		content, kind, ext = buf.Bytes(), domain.KindDelimitedText, "txt"
	}

	x.state = Serialized
	a := &domain.Artifact{
		ID:        uuid.NewString(),
		Kind:      kind,
		Filename:  fmt.Sprintf("TSS_%s_%s.%s", s.EmployerRNC, x.period.Start.Format("200601"), ext),
		Period:    period,
		Lines:     len(x.rows),
		Size:      len(content),
		Content:   content,
		CreatedAt: x.g.now().UTC(),
	}
	x.g.log.WithFields(logrus.Fields{
		"file":   a.Filename,
		"lines":  a.Lines,
		"bytes":  len(a.Content),
		"period": a.Period,
	}).Info("submission file generated")
	return a, nil
}

// ---------------------------------------------------------------------------
// Row building
// ---------------------------------------------------------------------------

func (g *Generator) buildRows(batch *domain.PayrollBatch) ([]layout.Row, []FieldError) {
	if batch == nil || len(batch.Lines) == 0 {
		return nil, []FieldError{{Field: "lines", Message: "batch has no payroll lines"}}
	}

	var problems []FieldError
	employees := batch.EmployeeByID()
	first := batch.Lines[0].Period
	seen := make(map[string]bool, len(batch.Lines))
	rows := make([]layout.Row, 0, len(batch.Lines))

	for i := range batch.Lines {
		line := &batch.Lines[i]
		emp := employees[line.EmployeeID]
		report := func(field, msg string) {
			fe := FieldError{LineID: line.ID, EmployeeID: line.EmployeeID, Field: field, Message: msg}
			if emp != nil {
				fe.Employee = emp.Name
			}
			problems = append(problems, fe)
		}

		if line.Status != domain.LineApproved {
			report("status", fmt.Sprintf("line is %s, only approved lines are exported", line.Status))
		}
		if line.Period.End.Before(line.Period.Start) {
			report("period", "period ends before it starts")
		}
		if !sameDay(line.Period.Start, first.Start) || !sameDay(line.Period.End, first.End) {
			report("period", "line belongs to a different period than the batch")
		}
		if seen[line.EmployeeID] {
			report("employeeId", "employee appears more than once in the batch")
		}
		seen[line.EmployeeID] = true

		if emp == nil {
			report("employeeId", "employee record not found")
			continue
		}
		nid := layout.DigitsOnly(emp.NationalID)
		if nid == "" {
			report("nationalId", "national ID is missing")
		}
		if emp.HireDate.IsZero() {
			report("hireDate", "hire date is missing")
		}
		if strings.TrimSpace(emp.Name) == "" {
			report("name", "name is missing")
		}
		contract, ok := layout.ContractCode(emp.ContractType)
		if !ok {
			report("contractType", fmt.Sprintf("unknown contract type %q", emp.ContractType))
		}

		// only inactive employees carry a termination date in the file
		termination := ""
		if emp.Status == domain.EmployeeInactive {
			if emp.TerminationDate == nil || emp.TerminationDate.IsZero() {
				report("terminationDate", "inactive employee has no termination date")
			} else {
				termination = layout.Date(*emp.TerminationDate)
			}
		}
		cot := g.engine.CotizableSalaries(line.BaseSalary)
		rows = append(rows, layout.Row{
			RNC:              g.settings.EmployerRNC,
			NationalID:       nid,
			Name:             layout.Name(emp.Name),
			Salary:           money.Format(money.Round(line.BaseSalary)),
			WorkedDays:       layout.WorkedDays(line.Period.Start, line.Period.End),
			PensionCotizable: money.Format(money.Round(cot.Pension)),
			HealthCotizable:  money.Format(money.Round(cot.Health)),
			Bonuses:          money.Format(money.Round(line.TotalBonuses())),
			ContractCode:     contract,
			HireDate:         layout.Date(emp.HireDate),
			TerminationDate:  termination,
			PayrollType:      g.settings.PayrollType,
		})
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return rows, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
