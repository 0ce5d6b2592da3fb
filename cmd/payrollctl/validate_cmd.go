package main

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// errCeilingViolations makes the command exit non-zero when figures exceed
// the ceilings.
var errCeilingViolations = errors.New("ceiling violations")

func newValidateCmd(a *app) *cobra.Command {
	var salary, pension, health, tax string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check figures against the contribution and tax ceilings",
		RunE: func(cmd *cobra.Command, args []string) error {
			vals := make([]decimal.Decimal, 4)
			for i, in := range []struct{ flag, v string }{
				{"salary", salary}, {"pension", pension}, {"health", health}, {"tax", tax},
			} {
				d, err := decimal.NewFromString(in.v)
				if err != nil {
					return errors.Wrapf(err, "invalid --%s", in.flag)
				}
				vals[i] = d
			}
			res := a.engine.Validate(vals[0], vals[1], vals[2], vals[3])
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errors.Wrapf(errCeilingViolations, "%d violation(s)", len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&salary, "salary", "", "Base salary (required)")
	cmd.Flags().StringVar(&pension, "pension", "0", "Employee pension contribution")
	cmd.Flags().StringVar(&health, "health", "0", "Employee health contribution")
	cmd.Flags().StringVar(&tax, "tax", "0", "Income tax withheld")
	_ = cmd.MarkFlagRequired("salary")
	return cmd
}
