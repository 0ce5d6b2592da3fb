package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
)

type verifyOutput struct {
	Period string       `json:"period"`
	Rows   int          `json:"rows"`
	Data   []layout.Row `json:"data,omitempty"`
}

// newVerifyCmd re-reads a generated submission file with the known layout.
func newVerifyCmd() *cobra.Command {
	var separator string
	var showRows bool

	cmd := &cobra.Command{
		Use:               "verify FILE",
		Short:             "Parse a generated submission file and summarize it",
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var (
				period string
				rows   []layout.Row
			)
			if strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
				period, rows, err = layout.ReadWorkbook(data)
			} else {
				sep, serr := layout.ParseSeparator(separator)
				if serr != nil {
					return serr
				}
				period, rows, err = layout.ReadText(bytes.NewReader(data), sep)
			}
			if err != nil {
				return err
			}
			out := verifyOutput{Period: period, Rows: len(rows)}
			if showRows {
				out.Data = rows
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&separator, "separator", "tab", "tab or comma (text files only)")
	cmd.Flags().BoolVar(&showRows, "rows", false, "Print every parsed row")
	return cmd
}
