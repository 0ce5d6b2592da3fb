package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/csg33k/tss-payroll/internal/adapters/pdf"
	sqliteadapter "github.com/csg33k/tss-payroll/internal/adapters/sqlite"
	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/xlsx"
	"github.com/csg33k/tss-payroll/internal/config"
	"github.com/csg33k/tss-payroll/internal/handlers"
	"github.com/csg33k/tss-payroll/internal/logging"
	"github.com/csg33k/tss-payroll/internal/metrics"
	"github.com/csg33k/tss-payroll/internal/payroll"
)

func main() {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		logrus.WithError(err).Warn("error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logrus.WithError(err).Fatal("invalid logging configuration")
	}

	taxCfg, err := cfg.TaxConfiguration()
	if err != nil {
		log.WithError(err).Fatal("failed to load tax configuration")
	}
	engine := payroll.NewEngine(taxCfg, log)

	settings, err := cfg.TSSSettings()
	if err != nil {
		log.WithError(err).Fatal("invalid export settings")
	}
	gen, err := tss.New(engine, settings, log)
	if err != nil {
		log.WithError(err).Fatal("invalid export settings")
	}

	repo, err := sqliteadapter.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer repo.Close()
	if err := repo.Migrate(context.Background()); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	h := handlers.New(engine, handlers.Exporters{
		Submission: gen,
		Report:     xlsx.NewReportGenerator(),
		Payslip:    pdf.NewPayslipGenerator(pdf.Employer{Name: cfg.EmployerName, RNC: gen.Settings().EmployerRNC}),
	}, repo, m, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.WithFields(logrus.Fields{
		"addr":        "http://localhost:" + cfg.Port,
		"db":          cfg.DBPath,
		"fiscal_year": taxCfg.FiscalYear,
		"format":      settings.Format,
	}).Info("TSS payroll server running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
}
