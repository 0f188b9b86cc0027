package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/kpi")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, reward.DefaultWorkers, cfg.BatchWorkers)
	assert.Equal(t, reward.FormulaStandard, cfg.Formula())
	assert.Equal(t, period.Monthly, cfg.PeriodType())
	require.NoError(t, cfg.Validate())
}

func TestFileOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
databaseUrl: postgres://file/kpi
batchWorkers: 8
rewardFormula: period_multiplier
recalcInterval: 6h
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BATCH_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://file/kpi", cfg.DatabaseURL)
	assert.Equal(t, 2, cfg.BatchWorkers)
	assert.Equal(t, reward.FormulaPeriodMultiplier, cfg.Formula())
	assert.Equal(t, 6*time.Hour, cfg.RecalcInterval)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batchWorkers: [1"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := defaults()
	valid.DatabaseURL = "postgres://localhost/kpi"
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"missing database":  func(c *Config) { c.DatabaseURL = "" },
		"production secret": func(c *Config) { c.Environment = "production" },
		"workers":           func(c *Config) { c.BatchWorkers = 0 },
		"formula":           func(c *Config) { c.RewardFormula = "double" },
		"period type":       func(c *Config) { c.RecalcPeriodType = "weekly" },
		"log level":         func(c *Config) { c.LogLevel = "loud" },
		"body limit":        func(c *Config) { c.MaxBodyBytes = 10 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := defaults()
	cfg.LogLevel = "warn"
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "subjectId", "emp-1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"subjectId":"emp-1"`)
}
