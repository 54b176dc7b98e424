// Package analysisconfig holds the per-run settings of a NAV analysis.
//
// A Config is a plain value passed explicitly into every analysis call. It
// is loaded from YAML (strict: unknown fields fail) on top of defaults taken
// from the process environment (pkg/config).
package analysisconfig

import (
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/pkg/config"
)

// Config is one analysis run.
type Config struct {
	Name string `yaml:"name" json:"name"`

	// Dates are YYYY-MM-DD; empty means unbounded.
	Begin         string `yaml:"begin" json:"begin"`
	End           string `yaml:"end" json:"end"`
	WinRatioStart string `yaml:"win_ratio_start" json:"win_ratio_start"`

	// Benchmark is an index symbol such as SHSE.000300; empty disables
	// excess-return analysis.
	Benchmark string `yaml:"benchmark" json:"benchmark"`

	ReturnType    string  `yaml:"return_type" json:"return_type"` // log, simple
	RollingWindow int     `yaml:"rolling_window" json:"rolling_window"`
	AttribWindow  int     `yaml:"attribution_window" json:"attribution_window"`
	Intercept     bool    `yaml:"intercept" json:"intercept"`
	CondThreshold float64 `yaml:"cond_threshold" json:"cond_threshold"`

	// PeriodsPerYear 0 means detect from the NAV dates (250 daily, 52 weekly).
	PeriodsPerYear int `yaml:"periods_per_year" json:"periods_per_year"`

	WeeklyTail int `yaml:"weekly_tail" json:"weekly_tail"`

	// VaRConfidence lists the tail-risk confidence levels, each in (0, 1).
	VaRConfidence []float64 `yaml:"var_confidence" json:"var_confidence"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ReturnType:    string(navseries.ReturnLog),
		RollingWindow: 20,
		AttribWindow:  60,
		CondThreshold: 50,
		WeeklyTail:    8,
		VaRConfidence: []float64{0.95, 0.99},
	}
}

// FromEnv returns the defaults overridden by process configuration.
func FromEnv(cfg *config.Config) Config {
	c := Default()
	c.ReturnType = cfg.Analysis.ReturnType
	c.RollingWindow = cfg.Analysis.RollingWindow
	c.AttribWindow = cfg.Analysis.AttribWindow
	c.CondThreshold = cfg.Analysis.CondThreshold
	c.PeriodsPerYear = cfg.Analysis.PeriodsPerYear
	return c
}

// Return returns the configured return convention. Call after Validate.
func (c *Config) Return() navseries.ReturnType {
	return navseries.ReturnType(c.ReturnType)
}

// Period returns the begin and end bounds; zero values are open.
// Call after Validate.
func (c *Config) Period() (begin, end time.Time) {
	begin, _ = parseDate(c.Begin)
	end, _ = parseDate(c.End)
	return begin, end
}

// WinRatioFrom returns the monthly-table start, zero when unset.
func (c *Config) WinRatioFrom() time.Time {
	t, _ := parseDate(c.WinRatioStart)
	return t
}

// Annualization resolves PeriodsPerYear, detecting it from dates when unset.
func (c *Config) Annualization(dates []time.Time) int {
	if c.PeriodsPerYear > 0 {
		return c.PeriodsPerYear
	}
	return navseries.DetectFrequency(dates).PeriodsPerYear()
}

// ⭐ SSOT: index symbols understood in benchmark files and their display names.
var KnownBenchmarks = map[string]string{
	"SHSE.000300": "沪深300",
	"SHSE.000905": "中证500",
	"SHSE.000852": "中证1000",
	"SZSE.399303": "国证2000",
	"SHSE.000985": "中证全指",
}

// BenchmarkName returns the display name for a symbol, or the symbol itself.
func BenchmarkName(symbol string) string {
	if name, ok := KnownBenchmarks[symbol]; ok {
		return name
	}
	return symbol
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(navseries.DateLayout, s)
}
