// Package config reads process settings from the environment, optionally
// seeded from .env files.
package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
)

type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"tss.db"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// TaxYear selects a built-in fiscal year unless TaxConfigPath names a
	// TOML file, which then wins.
	TaxYear       int    `env:"TAX_YEAR" envDefault:"2024"`
	TaxConfigPath string `env:"TAX_CONFIG_PATH"`

	ExportFormat    string `env:"EXPORT_FORMAT" envDefault:"text"`
	ExportSeparator string `env:"EXPORT_SEPARATOR" envDefault:"tab"`
	EmployerRNC     string `env:"EMPLOYER_RNC"`
	EmployerName    string `env:"EMPLOYER_NAME"`
	PayrollTypeCode string `env:"PAYROLL_TYPE_CODE" envDefault:"N"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadEnvFiles loads whichever of files exist. Variables already set in the
// process environment are not overridden.
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load parses the environment. Call LoadEnvFiles first to pick up .env.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.TaxConfigPath == "" {
		if _, err := taxconfig.ForYear(c.TaxYear); err != nil {
			problems = append(problems, "TAX_YEAR: "+err.Error())
		}
	}
	if _, err := c.Separator(); err != nil {
		problems = append(problems, "EXPORT_SEPARATOR: "+err.Error())
	}
	switch tss.Format(c.ExportFormat) {
	case tss.FormatText, tss.FormatSpreadsheet:
	default:
		problems = append(problems, "EXPORT_FORMAT must be text or xlsx")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, "LOG_FORMAT must be text or json")
	}
	if len(problems) > 0 {
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// TaxConfiguration loads the fiscal-year parameters the engine runs with.
func (c *Config) TaxConfiguration() (*taxconfig.Configuration, error) {
	if c.TaxConfigPath != "" {
		return taxconfig.Load(c.TaxConfigPath)
	}
	return taxconfig.ForYear(c.TaxYear)
}

func (c *Config) Separator() (layout.Separator, error) {
	return layout.ParseSeparator(c.ExportSeparator)
}

// TSSSettings returns the submission file settings. RNC validation happens
// when the generator is built.
func (c *Config) TSSSettings() (tss.Settings, error) {
	sep, err := c.Separator()
	if err != nil {
		return tss.Settings{}, err
	}
	return tss.Settings{
		EmployerRNC: c.EmployerRNC,
		Format:      tss.Format(c.ExportFormat),
		Separator:   sep,
		PayrollType: c.PayrollTypeCode,
	}, nil
}
