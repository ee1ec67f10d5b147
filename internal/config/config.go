// Package config loads run settings, sets up logging and locates the
// pubtrack repository on disk.
package config

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Match     MatchConfig     `yaml:"match" mapstructure:"match"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Crossref  CrossrefConfig  `yaml:"crossref" mapstructure:"crossref"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// MatchConfig configures the identity matcher.
type MatchConfig struct {
	AcceptThreshold    int  `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	FuzzyThreshold     int  `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	RequireAffiliation bool `yaml:"require_affiliation" mapstructure:"require_affiliation"`
}

// ReconcileConfig configures deduplication.
type ReconcileConfig struct {
	TitleThreshold int `yaml:"title_threshold" mapstructure:"title_threshold"`
	YearTolerance  int `yaml:"year_tolerance" mapstructure:"year_tolerance"`
}

// CrossrefConfig configures the Crossref lookup client.
type CrossrefConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Mailto      string  `yaml:"mailto" mapstructure:"mailto"`
	Rate        float64 `yaml:"rate" mapstructure:"rate"` // Requests per second
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // json, csv or xlsx
}

// ConfigName is the base name of the optional config file.
const ConfigName = "pubtrack"

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads configuration from defaults, an optional pubtrack.yaml and
// PUBTRACK_* environment variables, in increasing precedence. If file is
// set it must exist; otherwise pubtrack.yaml is searched for in each of
// dirs.
func Load(file string, dirs ...string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	v.SetEnvPrefix("PUBTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("match.accept_threshold", 90)
	v.SetDefault("match.fuzzy_threshold", 75)
	v.SetDefault("match.require_affiliation", false)
	v.SetDefault("reconcile.title_threshold", 90)
	v.SetDefault("reconcile.year_tolerance", 1)
	v.SetDefault("crossref.base_url", "https://api.crossref.org")
	v.SetDefault("crossref.mailto", "")
	v.SetDefault("crossref.rate", 10.0)
	v.SetDefault("crossref.max_retries", 3)
	v.SetDefault("crossref.concurrency", 4)
	v.SetDefault("report.format", "json")

	if file != "" || len(dirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if file != "" || !errors.As(err, &notFound) {
				return nil, eris.Wrap(err, "config: read file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	inRange := func(n int) bool { return n >= 0 && n <= 100 }
	switch {
	case !inRange(c.Match.AcceptThreshold) || !inRange(c.Match.FuzzyThreshold):
		return eris.Wrap(ErrInvalidConfig, "match thresholds must be between 0 and 100")
	case !inRange(c.Reconcile.TitleThreshold):
		return eris.Wrap(ErrInvalidConfig, "reconcile.title_threshold must be between 0 and 100")
	case c.Reconcile.YearTolerance < 0:
		return eris.Wrap(ErrInvalidConfig, "reconcile.year_tolerance must not be negative")
	case c.Crossref.Rate <= 0:
		return eris.Wrap(ErrInvalidConfig, "crossref.rate must be positive")
	}
	switch strings.ToLower(c.Report.Format) {
	case "json", "csv", "xlsx":
	default:
		return eris.Wrapf(ErrInvalidConfig, "report.format %q (want json, csv or xlsx)", c.Report.Format)
	}
	return nil
}
