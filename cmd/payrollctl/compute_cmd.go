package main

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/money"
	"github.com/csg33k/tss-payroll/internal/payroll"
)

type computeOutput struct {
	Line       *domain.PayrollLine       `json:"line"`
	Breakdown  map[string]string         `json:"breakdown"`
	Validation *payroll.ValidationResult `json:"validation,omitempty"`
}

func newComputeCmd(a *app) *cobra.Command {
	var (
		employeeID string
		salary     string
		start, end string
		payDate    string
		riskFactor string
		bonuses    []string
		deductions []string
		approve    bool
		allow      bool
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute contributions, income tax and net pay for one payroll line",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := decimal.NewFromString(salary)
			if err != nil {
				return errors.Wrap(err, "invalid --salary")
			}
			period, err := parsePeriod(start, end, payDate)
			if err != nil {
				return err
			}
			bs, err := parseBonuses(bonuses)
			if err != nil {
				return err
			}
			ds, err := parseDeductions(deductions)
			if err != nil {
				return err
			}
			var opts []payroll.Option
			if riskFactor != "" {
				f, err := decimal.NewFromString(riskFactor)
				if err != nil {
					return errors.Wrap(err, "invalid --risk-factor")
				}
				opts = append(opts, payroll.WithRiskFactor(f))
			}

			line := payroll.NewLine(employeeID, period, base, bs, ds)
			if err := a.engine.Compute(line, opts...); err != nil {
				return err
			}
			out := computeOutput{Line: line, Breakdown: breakdown(line)}
			if approve {
				res, err := a.engine.Approve(line, payroll.ApproveOptions{AllowViolations: allow})
				if err != nil {
					return err
				}
				out.Validation = &res
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID (required)")
	cmd.Flags().StringVar(&salary, "salary", "", "Monthly base salary (required)")
	cmd.Flags().StringVar(&start, "start", "", "Period start, YYYY-MM-DD (default first day of this month)")
	cmd.Flags().StringVar(&end, "end", "", "Period end, YYYY-MM-DD (default last day of the start month)")
	cmd.Flags().StringVar(&payDate, "pay-date", "", "Pay date, YYYY-MM-DD (default period end)")
	cmd.Flags().StringVar(&riskFactor, "risk-factor", "", "Employer work-risk variable factor, e.g. 0.003")
	cmd.Flags().StringArrayVar(&bonuses, "bonus", nil, "Bonus as type:amount[:description]; repeatable")
	cmd.Flags().StringArrayVar(&deductions, "deduction", nil, "Deduction as type:amount[:description]; repeatable")
	cmd.Flags().BoolVar(&approve, "approve", false, "Validate and approve the computed line")
	cmd.Flags().BoolVar(&allow, "allow-violations", false, "Approve even when ceilings are exceeded")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("salary")
	return cmd
}

func breakdown(l *domain.PayrollLine) map[string]string {
	return map[string]string{
		"gross":           money.Display(l.BaseSalary),
		"bonuses":         money.Display(l.TotalBonuses()),
		"deductions":      money.Display(l.TotalDeductions()),
		"pension":         money.Display(l.EmployeeContributions.Pension),
		"health":          money.Display(l.EmployeeContributions.Health),
		"incomeTax":       money.Display(l.IncomeTax),
		"net":             money.Display(l.NetSalary),
		"employerPension": money.Display(l.EmployerContributions.Pension),
		"employerHealth":  money.Display(l.EmployerContributions.Health),
		"trainingLevy":    money.Display(l.EmployerContributions.TrainingLevy),
		"workRisk":        money.Display(l.EmployerContributions.WorkRisk),
		"employerTotal":   money.Display(l.EmployerContributions.Total()),
		"employeeSSTotal": money.Display(l.EmployeeContributions.Total()),
	}
}

func parseDateUTC(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func parsePeriod(start, end, payDate string) (domain.Period, error) {
	var p domain.Period
	var err error
	if start == "" {
		now := time.Now().UTC()
		p.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else if p.Start, err = parseDateUTC(start); err != nil {
		return p, err
	}
	if end == "" {
		p.End = p.Start.AddDate(0, 1, -p.Start.Day())
	} else if p.End, err = parseDateUTC(end); err != nil {
		return p, err
	}
	if p.End.Before(p.Start) {
		return p, errors.New("period ends before it starts")
	}
	p.PayDate = p.End
	if payDate != "" {
		if p.PayDate, err = parseDateUTC(payDate); err != nil {
			return p, err
		}
	}
	return p, nil
}

func splitItem(s string) (kind string, amount decimal.Decimal, desc string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return "", decimal.Zero, "", errors.Errorf("invalid item %q (want type:amount[:description])", s)
	}
	amount, err = decimal.NewFromString(parts[1])
	if err != nil {
		return "", decimal.Zero, "", errors.Wrapf(err, "invalid amount in %q", s)
	}
	if len(parts) == 3 {
		desc = parts[2]
	}
	return parts[0], amount, desc, nil
}

func parseBonuses(items []string) ([]domain.Bonus, error) {
	var out []domain.Bonus
	for _, s := range items {
		kind, amt, desc, err := splitItem(s)
		if err != nil {
			return nil, err
		}
		switch t := domain.BonusType(kind); t {
		case domain.BonusOvertime, domain.BonusCommission, domain.BonusOther:
			out = append(out, domain.Bonus{Type: t, Amount: amt, Description: desc})
		default:
			return nil, errors.Errorf("unknown bonus type %q", kind)
		}
	}
	return out, nil
}

func parseDeductions(items []string) ([]domain.Deduction, error) {
	var out []domain.Deduction
	for _, s := range items {
		kind, amt, desc, err := splitItem(s)
		if err != nil {
			return nil, err
		}
		switch t := domain.DeductionType(kind); t {
		case domain.DeductionLoan, domain.DeductionAdvance, domain.DeductionOther:
			out = append(out, domain.Deduction{Type: t, Amount: amt, Description: desc})
		default:
			return nil, errors.Errorf("unknown deduction type %q", kind)
		}
	}
	return out, nil
}
