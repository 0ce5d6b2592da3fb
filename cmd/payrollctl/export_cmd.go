package main

import (
	"github.com/spf13/cobra"

	"github.com/csg33k/tss-payroll/internal/adapters/pdf"
	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/adapters/xlsx"
	"github.com/csg33k/tss-payroll/internal/domain"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		batchPath string
		outDir    string
		rnc       string
		separator string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the TSS submission file for an approved batch",
		Long: `Write the TSS submission file for an approved batch.

The file variant (text or xlsx) comes from EXPORT_FORMAT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch domain.PayrollBatch
			if err := readJSON(batchPath, &batch); err != nil {
				return err
			}
			settings, err := a.cfg.TSSSettings()
			if err != nil {
				return err
			}
			if rnc != "" {
				settings.EmployerRNC = rnc
			}
			if separator != "" {
				if settings.Separator, err = layout.ParseSeparator(separator); err != nil {
					return err
				}
			}
			gen, err := tss.New(a.engine, settings, a.log)
			if err != nil {
				return err
			}
			art, err := gen.Generate(cmd.Context(), &batch)
			if err != nil {
				return err
			}
			return writeArtifact(cmd.OutOrStdout(), outDir, art)
		},
	}
	cmd.Flags().StringVar(&batchPath, "batch", "", "PayrollBatch JSON file (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&rnc, "rnc", "", "Employer RNC (default from EMPLOYER_RNC)")
	cmd.Flags().StringVar(&separator, "separator", "", "tab or comma (default from EXPORT_SEPARATOR)")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var batchPath, outDir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the summary workbook for a batch of computed lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch domain.PayrollBatch
			if err := readJSON(batchPath, &batch); err != nil {
				return err
			}
			art, err := xlsx.NewReportGenerator().Generate(cmd.Context(), &batch)
			if err != nil {
				return err
			}
			return writeArtifact(cmd.OutOrStdout(), outDir, art)
		},
	}
	cmd.Flags().StringVar(&batchPath, "batch", "", "PayrollBatch JSON file (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	_ = cmd.MarkFlagRequired("batch")
	return cmd
}

type payslipInput struct {
	Line     domain.PayrollLine `json:"line"`
	Employee domain.Employee    `json:"employee"`
}

func newPayslipCmd(a *app) *cobra.Command {
	var inPath, outDir, employerName string

	cmd := &cobra.Command{
		Use:   "payslip",
		Short: "Write a printable payslip for one computed line",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in payslipInput
			if err := readJSON(inPath, &in); err != nil {
				return err
			}
			if employerName == "" {
				employerName = a.cfg.EmployerName
			}
			g := pdf.NewPayslipGenerator(pdf.Employer{Name: employerName, RNC: layout.DigitsOnly(a.cfg.EmployerRNC)})
			art, err := g.Generate(cmd.Context(), &in.Line, &in.Employee)
			if err != nil {
				return err
			}
			return writeArtifact(cmd.OutOrStdout(), outDir, art)
		},
	}
	cmd.Flags().StringVar(&inPath, "input", "", `JSON file with {"line": ..., "employee": ...} (required)`)
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&employerName, "employer-name", "", "Employer name (default from EMPLOYER_NAME)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
