// Package analysis runs the NAV analyses end to end: single fund with an
// optional benchmark, side-by-side comparison, and batches of files.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/drawdown"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/internal/performance"
	"github.com/Euclid-Jie/nav-analysis/internal/risk"
	"github.com/Euclid-Jie/nav-analysis/pkg/logger"
)

var ErrTooShort = errors.New("at least two observations are required")

// Analyzer produces analysis reports.
// ⭐ SSOT: report assembly happens here only; the numeric packages stay pure.
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates an analyzer. A nil logger is replaced with a no-op one.
func NewAnalyzer(log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{logger: log}
}

// Single analyses one NAV inside the configured period. With a benchmark the
// report also covers the benchmark itself, the excess NAV (fund / benchmark)
// and their rolling return correlation. The benchmark is forward-filled onto
// the fund's dates, and fund dates before the benchmark's first bar are
// dropped.
func (a *Analyzer) Single(ctx context.Context, cfg analysisconfig.Config, nav, bench *navseries.Series) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := analysisconfig.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	hash, err := analysisconfig.Hash(&cfg)
	if err != nil {
		return nil, err
	}

	begin, end := cfg.Period()
	if bench != nil && bench.First().After(begin) {
		begin = bench.First()
	}
	nav, err = nav.Between(begin, end)
	if err != nil {
		return nil, err
	}

	ppy := cfg.Annualization(nav.Dates())
	fund, fundReturns, err := a.seriesReport(cfg, nav, ppy)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ConfigHash: hash,
		Fund:       *fund,
		Warnings:   analysisconfig.Warn(&cfg),
	}

	if bench != nil {
		aligned, err := bench.FillForward(nav.Dates())
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		aligned = aligned.Rename(analysisconfig.BenchmarkName(bench.Name))

		benchReport, benchReturns, err := a.seriesReport(cfg, aligned, ppy)
		if err != nil {
			return nil, err
		}
		report.Benchmark = benchReport

		excess, err := navseries.Excess(nav, aligned)
		if err != nil {
			return nil, err
		}
		if report.Excess, _, err = a.seriesReport(cfg, excess, ppy); err != nil {
			return nil, err
		}

		if len(fundReturns) >= cfg.RollingWindow {
			report.RollingCorrelation, err = performance.RollingCorrelation(
				fundReturns, benchReturns, nav.Dates()[1:], cfg.RollingWindow)
			if err != nil {
				return nil, err
			}
		}
	}

	a.logger.WithSeries(nav.Name).WithFields(map[string]interface{}{
		"begin":        nav.First().Format(navseries.DateLayout),
		"end":          nav.Last().Format(navseries.DateLayout),
		"annual":       fund.Metrics.AnnualReturn,
		"sharpe":       fund.Metrics.Sharpe,
		"max_drawdown": fund.MaxDrawdown.MaxDrawdown,
		"benchmark":    bench != nil,
	}).Info("NAV analysis completed")

	return report, nil
}

// seriesReport analyses one path and also returns its period returns.
func (a *Analyzer) seriesReport(cfg analysisconfig.Config, s *navseries.Series, ppy int) (*SeriesReport, []float64, error) {
	if s.Len() < 2 {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, ErrTooShort)
	}
	s = s.Normalize()
	dates := s.Dates()
	values := s.Values()

	returns, err := s.Returns(cfg.Return())
	if err != nil {
		return nil, nil, err
	}
	metrics, err := performance.CurveAnalysis(returns, ppy)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	curve, episodes, err := drawdown.Segment(values, dates)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	_, period, err := drawdown.MaxDrawdownPeriod(values, dates)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	r := &SeriesReport{
		Name:           s.Name,
		Begin:          s.First(),
		End:            s.Last(),
		Observations:   s.Len(),
		PeriodsPerYear: ppy,
		LastNAV:        values[len(values)-1],
		WeekReturn:     performance.TrailingReturn(s, s.Last().AddDate(0, 0, -7)),
		YearToDate:     performance.TrailingReturn(s, yearStart(s.Last())),
		Metrics:        metrics,
		MaxDrawdown:    period,
		Episodes:       episodes,
		Drawdown:       make([]performance.Point, len(curve)),
		Weekly:         performance.WeeklyReturns(s, cfg.WeeklyTail),
		Yearly:         performance.YearlyReturns(s),
	}
	for i, v := range curve {
		r.Drawdown[i] = performance.Point{Date: dates[i], Value: v}
	}

	// A win-ratio start after the last observation leaves the table empty.
	r.Monthly, err = performance.MonthlyReturns(s, cfg.WinRatioFrom())
	if err != nil && !errors.Is(err, navseries.ErrEmptySeries) {
		return nil, nil, err
	}

	if r.TailRisk, err = risk.TailRisk(returns, cfg.VaRConfidence); err != nil && !errors.Is(err, risk.ErrEmptyReturns) {
		return nil, nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	if len(returns) >= cfg.RollingWindow {
		r.RollingVolatility, err = performance.RollingVolatility(returns, dates[1:], cfg.RollingWindow, ppy)
		if err != nil {
			return nil, nil, err
		}
	}

	return r, returns, nil
}

// headline is the compact form of a path's analysis.
func headline(s *navseries.Series, returns []float64, ppy int) (Headline, error) {
	metrics, err := performance.CurveAnalysis(returns, ppy)
	if err != nil {
		return Headline{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	values := s.Values()
	_, period, err := drawdown.MaxDrawdownPeriod(values, s.Dates())
	if err != nil {
		return Headline{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	return Headline{
		Name:        s.Name,
		Begin:       s.First(),
		End:         s.Last(),
		LastNAV:     values[len(values)-1],
		Metrics:     metrics,
		MaxDrawdown: period,
	}, nil
}

// yearStart is the last day of the year before d.
func yearStart(d time.Time) time.Time {
	return time.Date(d.Year()-1, 12, 31, 0, 0, 0, 0, d.Location())
}

// restrict trims a calendar to [begin, end]; zero bounds are open.
func restrict(calendar []time.Time, begin, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(calendar))
	for _, d := range calendar {
		if !begin.IsZero() && d.Before(begin) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}
