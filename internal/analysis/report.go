package analysis

import (
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/drawdown"
	"github.com/Euclid-Jie/nav-analysis/internal/performance"
	"github.com/Euclid-Jie/nav-analysis/internal/risk"
)

// SeriesReport is the full analysis of one NAV path (fund, benchmark or
// excess).
type SeriesReport struct {
	Name           string    `json:"name" yaml:"name"`
	Begin          time.Time `json:"begin" yaml:"begin"`
	End            time.Time `json:"end" yaml:"end"`
	Observations   int       `json:"observations" yaml:"observations"`
	PeriodsPerYear int       `json:"periods_per_year" yaml:"periods_per_year"`
	LastNAV        float64   `json:"last_nav" yaml:"last_nav"` // normalized to start at 1
	WeekReturn     float64   `json:"week_return" yaml:"week_return"`
	YearToDate     float64   `json:"year_to_date" yaml:"year_to_date"`

	Metrics performance.Metrics `json:"metrics" yaml:"metrics"`

	MaxDrawdown drawdown.Period     `json:"max_drawdown" yaml:"max_drawdown"`
	Episodes    []drawdown.Episode  `json:"episodes" yaml:"episodes"`
	Drawdown    []performance.Point `json:"drawdown" yaml:"drawdown"`

	TailRisk []risk.VaRResult `json:"tail_risk,omitempty" yaml:"tail_risk,omitempty"`

	Monthly           []performance.YearRow      `json:"monthly,omitempty" yaml:"monthly,omitempty"`
	Weekly            []performance.WeeklyReturn `json:"weekly,omitempty" yaml:"weekly,omitempty"`
	Yearly            map[int]float64            `json:"yearly,omitempty" yaml:"yearly,omitempty"`
	RollingVolatility []performance.Point        `json:"rolling_volatility,omitempty" yaml:"rolling_volatility,omitempty"`
}

// Report is the result of Single.
type Report struct {
	ConfigHash string `json:"config_hash" yaml:"config_hash"`

	Fund      SeriesReport  `json:"fund" yaml:"fund"`
	Benchmark *SeriesReport `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	Excess    *SeriesReport `json:"excess,omitempty" yaml:"excess,omitempty"`

	// RollingCorrelation pairs fund and benchmark returns.
	RollingCorrelation []performance.Point `json:"rolling_correlation,omitempty" yaml:"rolling_correlation,omitempty"`

	Warnings []analysisconfig.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Headline is the compact per-series row of Compare and Batch.
type Headline struct {
	Name        string              `json:"name" yaml:"name"`
	Begin       time.Time           `json:"begin" yaml:"begin"`
	End         time.Time           `json:"end" yaml:"end"`
	LastNAV     float64             `json:"last_nav" yaml:"last_nav"`
	Metrics     performance.Metrics `json:"metrics" yaml:"metrics"`
	MaxDrawdown drawdown.Period     `json:"max_drawdown" yaml:"max_drawdown"`
}

// Comparison is the result of Compare.
type Comparison struct {
	ConfigHash string     `json:"config_hash" yaml:"config_hash"`
	Begin      time.Time  `json:"begin" yaml:"begin"`
	End        time.Time  `json:"end" yaml:"end"`
	Rows       []Headline `json:"rows" yaml:"rows"`
	Benchmark  *Headline  `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
}

// BatchRow summarises one file of a batch.
type BatchRow struct {
	Headline `yaml:",inline"`

	WeekReturn    float64         `json:"week_return" yaml:"week_return"`
	YearToDate    float64         `json:"year_to_date" yaml:"year_to_date"`
	YearlyReturns map[int]float64 `json:"yearly_returns" yaml:"yearly_returns"`
}

// BatchFailure records a series the batch could not analyse.
type BatchFailure struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error" yaml:"error"`
}

// BatchResult is the result of Batch.
type BatchResult struct {
	ConfigHash string         `json:"config_hash" yaml:"config_hash"`
	Rows       []BatchRow     `json:"rows" yaml:"rows"`
	Failures   []BatchFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}
