package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 90, cfg.Match.AcceptThreshold)
	assert.Equal(t, 75, cfg.Match.FuzzyThreshold)
	assert.False(t, cfg.Match.RequireAffiliation)
	assert.Equal(t, 90, cfg.Reconcile.TitleThreshold)
	assert.Equal(t, 1, cfg.Reconcile.YearTolerance)
	assert.Equal(t, "https://api.crossref.org", cfg.Crossref.BaseURL)
	assert.InDelta(t, 10.0, cfg.Crossref.Rate, 0.001)
	assert.Equal(t, 3, cfg.Crossref.MaxRetries)
	assert.Equal(t, 4, cfg.Crossref.Concurrency)
	assert.Equal(t, "json", cfg.Report.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log:
  level: debug
match:
  accept_threshold: 95
  require_affiliation: true
crossref:
  mailto: lab@example.org
report:
  format: xlsx
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pubtrack.yaml"), []byte(yaml), 0644))

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 95, cfg.Match.AcceptThreshold)
	assert.True(t, cfg.Match.RequireAffiliation)
	assert.Equal(t, "lab@example.org", cfg.Crossref.Mailto)
	assert.Equal(t, "xlsx", cfg.Report.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 75, cfg.Match.FuzzyThreshold)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reconcile:\n  year_tolerance: 2\n"), 0644))
	t.Setenv("PUBTRACK_RECONCILE_YEAR_TOLERANCE", "0")
	t.Setenv("PUBTRACK_REPORT_FORMAT", "csv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Reconcile.YearTolerance)
	assert.Equal(t, "csv", cfg.Report.Format)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"accept threshold", func(c *Config) { c.Match.AcceptThreshold = 101 }},
		{"title threshold", func(c *Config) { c.Reconcile.TitleThreshold = -1 }},
		{"year tolerance", func(c *Config) { c.Reconcile.YearTolerance = -1 }},
		{"rate", func(c *Config) { c.Crossref.Rate = 0 }},
		{"format", func(c *Config) { c.Report.Format = "pdf" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
	assert.NoError(t, base.Validate())
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		t.Run(format, func(t *testing.T) {
			logger, err := InitLogger(LogConfig{Level: "warn", Format: format})
			require.NoError(t, err)
			assert.Same(t, logger, zap.L())
			assert.False(t, logger.Core().Enabled(zap.InfoLevel))
			assert.True(t, logger.Core().Enabled(zap.WarnLevel))
		})
	}

	_, err := InitLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
