package performance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Euclid-Jie/nav-analysis/internal/drawdown"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/internal/window"
)

var (
	ErrEmptyReturns = errors.New("no returns to analyse")
	ErrBounds       = errors.New("max must be greater than min")
)

// Metrics summarises a return series.
type Metrics struct {
	Periods        int     `json:"periods" yaml:"periods"`
	TotalReturn    float64 `json:"total_return" yaml:"total_return"`
	AnnualReturn   float64 `json:"annual_return" yaml:"annual_return"`
	Volatility     float64 `json:"volatility" yaml:"volatility"` // per period, population
	AnnualVol      float64 `json:"annual_volatility" yaml:"annual_volatility"`
	Sharpe         float64 `json:"sharpe" yaml:"sharpe"`
	MaxDrawdown    float64 `json:"max_drawdown" yaml:"max_drawdown"` // positive magnitude
	PeriodsPerYear int     `json:"periods_per_year" yaml:"periods_per_year"`
}

// CurveAnalysis computes the headline metrics of a return series.
//
// Returns are treated additively: non-finite values are cleaned to 0, the
// total return is their sum, and the annual return scales it by
// periodsPerYear/len. Sharpe is annual return over annualized volatility
// (no risk-free rate) and is 0 when volatility is 0. MaxDrawdown is the
// running-sum reset statistic of the same returns.
func CurveAnalysis(returns []float64, periodsPerYear int) (Metrics, error) {
	if len(returns) == 0 {
		return Metrics{}, ErrEmptyReturns
	}
	if periodsPerYear <= 0 {
		return Metrics{}, fmt.Errorf("periods per year %d must be > 0", periodsPerYear)
	}

	r := navseries.Clean(returns, false, 0)

	m := Metrics{
		Periods:        len(r),
		PeriodsPerYear: periodsPerYear,
		TotalReturn:    floats.Sum(r),
	}

	years := float64(len(r)) / float64(periodsPerYear)
	m.AnnualReturn = m.TotalReturn / years

	m.Volatility = math.Sqrt(stat.PopVariance(r, nil))
	m.AnnualVol = m.Volatility * math.Sqrt(float64(periodsPerYear))
	m.Sharpe = sharpe(m.AnnualReturn, m.AnnualVol)
	m.MaxDrawdown = drawdown.MaximumDrawDown(r)

	return m, nil
}

// sharpe returns 0 for a zero-volatility series.
func sharpe(annualReturn, volatility float64) float64 {
	if volatility == 0 {
		return 0
	}
	return annualReturn / volatility
}

// Point is one dated observation of a derived series.
type Point struct {
	Date  time.Time `json:"date" yaml:"date"`
	Value float64   `json:"value" yaml:"value"`
}

// RollingVolatility annualizes the rolling sample standard deviation of
// returns. returns[i] is dated dates[i]; warm-up positions (NaN) are
// omitted from the result.
func RollingVolatility(returns []float64, dates []time.Time, size, periodsPerYear int) ([]Point, error) {
	if len(returns) != len(dates) {
		return nil, fmt.Errorf("%d returns, %d dates: %w", len(returns), len(dates), navseries.ErrLengthMismatch)
	}
	sd, err := window.StdSeries(returns, size, 0)
	if err != nil {
		return nil, fmt.Errorf("rolling volatility: %w", err)
	}

	scale := math.Sqrt(float64(periodsPerYear))
	for i := range sd {
		sd[i] *= scale
	}
	return points(sd, dates), nil
}

// RollingCorrelation is the rolling correlation of two aligned return
// series, NaN positions omitted.
func RollingCorrelation(a, b []float64, dates []time.Time, size int) ([]Point, error) {
	if len(a) != len(dates) {
		return nil, fmt.Errorf("%d returns, %d dates: %w", len(a), len(dates), navseries.ErrLengthMismatch)
	}
	c, err := window.CorrelationSeries(a, b, size, 0)
	if err != nil {
		return nil, fmt.Errorf("rolling correlation: %w", err)
	}
	return points(c, dates), nil
}

func points(values []float64, dates []time.Time) []Point {
	out := make([]Point, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, Point{Date: dates[i], Value: v})
	}
	return out
}

// Bounds pads [min, max] by precision·(max-min) on each side and rounds
// outward to the given number of decimals. Used for chart axes.
func Bounds(maxValue, minValue, precision float64, decimals int) (upper, lower float64, err error) {
	if !(maxValue > minValue) {
		return 0, 0, fmt.Errorf("max %v, min %v: %w", maxValue, minValue, ErrBounds)
	}
	span := maxValue - minValue
	scale := math.Pow(10, float64(decimals))

	upper = math.Ceil((maxValue+precision*span)*scale) / scale
	lower = math.Floor((minValue-precision*span)*scale) / scale
	return upper, lower, nil
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
