package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/adapters/tss"
	"github.com/csg33k/tss-payroll/internal/adapters/tss/layout"
	"github.com/csg33k/tss-payroll/internal/config"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Values(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":             "9090",
		"TAX_YEAR":         "2024",
		"EXPORT_FORMAT":    "xlsx",
		"EXPORT_SEPARATOR": "comma",
		"EMPLOYER_RNC":     "1-31-00000-1",
		"LOG_FORMAT":       "json",
	})

	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 2024, c.TaxYear)

	s, err := c.TSSSettings()
	require.NoError(t, err)
	assert.Equal(t, tss.FormatSpreadsheet, s.Format)
	assert.Equal(t, layout.Comma, s.Separator)
	assert.Equal(t, "1-31-00000-1", s.EmployerRNC)

	tc, err := c.TaxConfiguration()
	require.NoError(t, err)
	assert.Equal(t, 2024, tc.FiscalYear)
}

func TestLoad_RejectsEverythingWrongAtOnce(t *testing.T) {
	setEnv(t, map[string]string{
		"TAX_YEAR":         "1999",
		"TAX_CONFIG_PATH":  "",
		"EXPORT_FORMAT":    "csv",
		"EXPORT_SEPARATOR": "pipe",
		"LOG_FORMAT":       "xml",
	})

	_, err := config.Load()
	require.Error(t, err)
	for _, key := range []string{"TAX_YEAR", "EXPORT_FORMAT", "EXPORT_SEPARATOR", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoad_TaxConfigPathWins(t *testing.T) {
	setEnv(t, map[string]string{
		"TAX_YEAR":         "1999",
		"TAX_CONFIG_PATH":  filepath.Join("..", "taxconfig", "years", "2024.toml"),
		"EXPORT_FORMAT":    "text",
		"EXPORT_SEPARATOR": "tab",
		"LOG_FORMAT":       "text",
	})

	c, err := config.Load()
	require.NoError(t, err)
	tc, err := c.TaxConfiguration()
	require.NoError(t, err)
	assert.Equal(t, 2024, tc.FiscalYear)
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "TSS_PAYROLL_CONFIG_TEST"
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	n, err := config.LoadEnvFiles(path, filepath.Join(dir, ".env.local"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-file", os.Getenv(key))
}
