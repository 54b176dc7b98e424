package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/ingest"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

var ErrNoSeries = errors.New("no NAV series to compare")

// Compare puts several NAVs on one trading calendar and reports headline
// metrics side by side. Every series is forward-filled onto the calendar
// from the latest common start. With a benchmark each row describes the
// excess path: returns are fund minus benchmark and the drawdown is that of
// fund / benchmark.
func (a *Analyzer) Compare(ctx context.Context, cfg analysisconfig.Config, calendar []time.Time, navs []*navseries.Series, bench *navseries.Series) (*Comparison, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(navs) == 0 {
		return nil, ErrNoSeries
	}
	if err := analysisconfig.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	hash, err := analysisconfig.Hash(&cfg)
	if err != nil {
		return nil, err
	}

	begin, end := cfg.Period()
	for _, nav := range navs {
		if nav.First().After(begin) {
			begin = nav.First()
		}
	}
	if bench != nil && bench.First().After(begin) {
		begin = bench.First()
	}
	cal := restrict(calendar, begin, end)
	if len(cal) < 2 {
		return nil, fmt.Errorf("calendar %s to %s: %w",
			begin.Format(navseries.DateLayout), end.Format(navseries.DateLayout), ErrTooShort)
	}
	ppy := cfg.Annualization(cal)

	out := &Comparison{ConfigHash: hash, Begin: cal[0], End: cal[len(cal)-1]}

	var benchNav *navseries.Series
	var benchReturns []float64
	if bench != nil {
		filled, err := bench.FillForward(cal)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		benchNav = filled.Normalize().Rename(analysisconfig.BenchmarkName(bench.Name))
		if benchReturns, err = benchNav.Returns(cfg.Return()); err != nil {
			return nil, err
		}
		h, err := headline(benchNav, benchReturns, ppy)
		if err != nil {
			return nil, err
		}
		out.Benchmark = &h
	}

	for _, nav := range navs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filled, err := nav.FillForward(cal)
		if err != nil {
			return nil, err
		}
		filled = filled.Normalize()
		returns, err := filled.Returns(cfg.Return())
		if err != nil {
			return nil, err
		}

		path := filled
		if benchNav != nil {
			if path, err = navseries.Excess(filled, benchNav); err != nil {
				return nil, err
			}
			for i := range returns {
				returns[i] -= benchReturns[i]
			}
		}

		h, err := headline(path, returns, ppy)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, h)
	}

	a.logger.WithFields(map[string]interface{}{
		"series":    len(navs),
		"begin":     out.Begin.Format(navseries.DateLayout),
		"end":       out.End.Format(navseries.DateLayout),
		"benchmark": bench != nil,
	}).Info("NAV comparison completed")

	return out, nil
}

// Batch runs Single over NAV files one after another. A file that cannot be
// read or analysed is recorded in Failures and the batch moves on. With a
// benchmark each row describes the excess path.
func (a *Analyzer) Batch(ctx context.Context, cfg analysisconfig.Config, paths []string, bench *navseries.Series) (*BatchResult, error) {
	if err := analysisconfig.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	hash, err := analysisconfig.Hash(&cfg)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{ConfigHash: hash, Rows: []BatchRow{}}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nav, err := ingest.ReadNAVFile(path)
		if err != nil {
			out.Failures = append(out.Failures, a.failure(path, err))
			continue
		}

		report, err := a.Single(ctx, cfg, nav, bench)
		if err != nil {
			out.Failures = append(out.Failures, a.failure(nav.Name, err))
			continue
		}

		target := &report.Fund
		if report.Excess != nil {
			target = report.Excess
		}
		out.Rows = append(out.Rows, BatchRow{
			Headline: Headline{
				Name:        target.Name,
				Begin:       target.Begin,
				End:         target.End,
				LastNAV:     target.LastNAV,
				Metrics:     target.Metrics,
				MaxDrawdown: target.MaxDrawdown,
			},
			WeekReturn:    target.WeekReturn,
			YearToDate:    target.YearToDate,
			YearlyReturns: target.Yearly,
		})
	}

	a.logger.WithFields(map[string]interface{}{
		"files":    len(paths),
		"analysed": len(out.Rows),
		"failed":   len(out.Failures),
	}).Info("NAV batch completed")

	return out, nil
}

func (a *Analyzer) failure(name string, err error) BatchFailure {
	a.logger.WithSeries(name).WithError(err).Warn("NAV analysis failed")
	return BatchFailure{Name: name, Error: err.Error()}
}
