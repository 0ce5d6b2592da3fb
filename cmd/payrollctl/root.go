package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/csg33k/tss-payroll/internal/config"
	"github.com/csg33k/tss-payroll/internal/logging"
	"github.com/csg33k/tss-payroll/internal/payroll"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

// app holds what every subcommand needs. It is filled in PersistentPreRunE.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	engine *payroll.Engine

	taxYear   int
	taxConfig string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "payrollctl",
		Short:         "Payroll tax and TSS compliance tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	cmd.PersistentFlags().IntVar(&a.taxYear, "tax-year", 0, "Built-in fiscal year (default from TAX_YEAR)")
	cmd.PersistentFlags().StringVar(&a.taxConfig, "tax-config", "", "Fiscal-year TOML file (default from TAX_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (default from LOG_LEVEL)")

	cmd.AddCommand(
		newComputeCmd(a),
		newValidateCmd(a),
		newExportCmd(a),
		newReportCmd(a),
		newPayslipCmd(a),
		newVerifyCmd(),
		newYearsCmd(),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("tax-year") {
		cfg.TaxYear = a.taxYear
		cfg.TaxConfigPath = ""
	}
	if a.taxConfig != "" {
		cfg.TaxConfigPath = a.taxConfig
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	taxCfg, err := cfg.TaxConfiguration()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.engine = payroll.NewEngine(taxCfg, log)
	return nil
}

func newYearsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "years",
		Short: "List built-in fiscal years",
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), taxconfig.Supported())
		},
	}
}
