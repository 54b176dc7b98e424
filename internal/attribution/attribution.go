// Package attribution explains a fund's returns by rolling regressions on
// factor return series.
package attribution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/internal/regression"
	"github.com/Euclid-Jie/nav-analysis/pkg/logger"
)

// InterceptName labels the intercept coefficient.
const InterceptName = "intercept"

// significantT is the |t| above which an exposure counts as significant.
const significantT = 2.0

var (
	ErrNoFactors       = errors.New("at least one factor is required")
	ErrFactorLength    = errors.New("factor length does not match nav returns")
	ErrDuplicateFactor = errors.New("duplicate factor name")
	ErrTooShort        = errors.New("not enough returns for the window")
)

// Factor is one explanatory return series, aligned with the NAV returns.
type Factor struct {
	Name    string
	Returns []float64
}

// Row is the regression output of the window ending on Date.
// Betas and TValues follow Result.Coefficients.
type Row struct {
	Date    time.Time `json:"date" yaml:"date"`
	Betas   []Number  `json:"betas" yaml:"betas"`
	TValues []Number  `json:"t_values" yaml:"t_values"`
	R2      Number    `json:"r2" yaml:"r2"`
	F       Number    `json:"f" yaml:"f"`
}

// Summary aggregates one coefficient over every window. Non-finite window
// values are skipped.
type Summary struct {
	Name        string `json:"name" yaml:"name"`
	MeanBeta    Number `json:"mean_beta" yaml:"mean_beta"`
	StdBeta     Number `json:"std_beta" yaml:"std_beta"`
	LastBeta    Number `json:"last_beta" yaml:"last_beta"`
	MeanT       Number `json:"mean_t" yaml:"mean_t"`
	Significant Number `json:"significant_share" yaml:"significant_share"` // share of windows with |t| > 2
}

// Result is a rolling attribution of one NAV series.
type Result struct {
	Name           string    `json:"name" yaml:"name"`
	Window         int       `json:"window" yaml:"window"`
	Coefficients   []string  `json:"coefficients" yaml:"coefficients"`
	Rows           []Row     `json:"rows" yaml:"rows"`
	Summary        []Summary `json:"summary" yaml:"summary"`
	MeanR2         Number    `json:"mean_r2" yaml:"mean_r2"`
	IllConditioned int       `json:"ill_conditioned" yaml:"ill_conditioned"`
}

// Analyzer runs rolling attributions on a regression engine.
type Analyzer struct {
	engine *regression.Engine
	logger *logger.Logger
}

// NewAnalyzer creates an attribution analyzer.
func NewAnalyzer(engine *regression.Engine, log *logger.Logger) *Analyzer {
	return &Analyzer{engine: engine, logger: log}
}

// Analyze regresses the log returns of nav on the factors over every
// trailing window of the given size.
//
// NAV returns are len(nav)-1 long; return i is dated nav.Dates()[i+1], so
// row j is dated nav.Dates()[j+window]. Each factor must have exactly one
// value per return.
func (a *Analyzer) Analyze(ctx context.Context, nav *navseries.Series, factors []Factor, window int, intercept bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(factors) == 0 {
		return nil, ErrNoFactors
	}

	returns, err := nav.Returns(navseries.ReturnLog)
	if err != nil {
		return nil, err
	}
	if window < 1 || window > len(returns) {
		return nil, fmt.Errorf("%s: window %d, %d returns: %w", nav.Name, window, len(returns), ErrTooShort)
	}

	names := make([]string, 0, len(factors)+1)
	seen := make(map[string]bool, len(factors))
	xs := make([][]float64, len(factors))
	for k, f := range factors {
		if seen[f.Name] {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrDuplicateFactor)
		}
		seen[f.Name] = true
		if len(f.Returns) != len(returns) {
			return nil, fmt.Errorf("%s: %d values, %d returns: %w", f.Name, len(f.Returns), len(returns), ErrFactorLength)
		}
		names = append(names, f.Name)
		xs[k] = f.Returns
	}
	if intercept {
		names = append(names, InterceptName)
	}

	reg, err := a.engine.Rolling(returns, xs, window, intercept)
	if err != nil {
		return nil, fmt.Errorf("%s: rolling regression: %w", nav.Name, err)
	}

	dates := nav.Dates()
	rows, k := reg.Betas.Dims()
	res := &Result{
		Name:           nav.Name,
		Window:         window,
		Coefficients:   names,
		Rows:           make([]Row, rows),
		IllConditioned: reg.IllConditioned,
	}
	for i := 0; i < rows; i++ {
		row := Row{
			Date:    dates[i+window],
			Betas:   make([]Number, k),
			TValues: make([]Number, k),
			R2:      Number(reg.R2[i]),
			F:       Number(reg.F[i]),
		}
		for j := 0; j < k; j++ {
			row.Betas[j] = Number(reg.Betas.At(i, j))
			row.TValues[j] = Number(reg.TValues.At(i, j))
		}
		res.Rows[i] = row
	}

	res.Summary = summarize(names, reg)
	res.MeanR2 = finiteMean(reg.R2)

	if a.logger != nil {
		a.logger.WithSeries(nav.Name).WithFields(map[string]interface{}{
			"factors": len(factors),
			"window":  window,
			"rows":    rows,
		}).Info("Attribution analysis completed")
	}
	return res, nil
}

func summarize(names []string, reg *regression.Result) []Summary {
	rows, _ := reg.Betas.Dims()
	out := make([]Summary, len(names))
	for j, name := range names {
		betas := make([]float64, rows)
		ts := make([]float64, rows)
		for i := 0; i < rows; i++ {
			betas[i] = reg.Betas.At(i, j)
			ts[i] = reg.TValues.At(i, j)
		}

		s := Summary{Name: name, LastBeta: Number(betas[rows-1])}
		fb := finite(betas)
		switch len(fb) {
		case 0:
			s.MeanBeta, s.StdBeta = Number(math.NaN()), Number(math.NaN())
		case 1:
			s.MeanBeta, s.StdBeta = Number(fb[0]), 0
		default:
			mean, std := stat.MeanStdDev(fb, nil)
			s.MeanBeta, s.StdBeta = Number(mean), Number(std)
		}

		s.MeanT = finiteMean(ts)
		significant := 0
		for _, t := range ts {
			if math.Abs(t) > significantT {
				significant++
			}
		}
		s.Significant = Number(float64(significant) / float64(rows))
		out[j] = s
	}
	return out
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func finiteMean(values []float64) Number {
	f := finite(values)
	if len(f) == 0 {
		return Number(math.NaN())
	}
	return Number(stat.Mean(f, nil))
}

// FactorFromPrices turns a factor price (or index level) series into returns
// aligned with a NAV observed on dates. Every NAV date must be present in
// prices.
func FactorFromPrices(prices *navseries.Series, dates []time.Time, kind navseries.ReturnType) (Factor, error) {
	aligned, err := prices.Align(dates)
	if err != nil {
		return Factor{}, err
	}
	r, err := aligned.Returns(kind)
	if err != nil {
		return Factor{}, err
	}
	return Factor{Name: prices.Name, Returns: r}, nil
}
