package drawdown

import (
	"math"
	"time"
)

// Period describes the single deepest drawdown of a series.
//
// InDrawdown is false when the series never fell below a previous peak; all
// other fields are then zero.
type Period struct {
	InDrawdown   bool      `json:"in_drawdown" yaml:"in_drawdown"`
	MaxDrawdown  float64   `json:"max_drawdown" yaml:"max_drawdown"`
	Begin        time.Time `json:"begin,omitempty" yaml:"begin,omitempty"`
	Trough       time.Time `json:"trough,omitempty" yaml:"trough,omitempty"`
	Days         int       `json:"days" yaml:"days"`
	Recovered    bool      `json:"recovered" yaml:"recovered"`
	Recovery     time.Time `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	RecoveryDays int       `json:"recovery_days" yaml:"recovery_days"` // -1 when not recovered
}

// MaxDrawdownPeriod locates the global drawdown trough (argmin of the
// curve), scans back to the preceding zero for its beginning and forward to
// the next zero for its recovery.
func MaxDrawdownPeriod(nav []float64, dates []time.Time) ([]float64, Period, error) {
	if err := checkInputs(nav, dates); err != nil {
		return nil, Period{}, err
	}

	dd := Curve(nav)

	trough := 0
	for i, v := range dd {
		if v < dd[trough] {
			trough = i
		}
	}
	if trough == 0 || dd[trough] >= 0 {
		return dd, Period{RecoveryDays: -1}, nil
	}

	begin := 0
	for i := trough - 1; i >= 0; i-- {
		if dd[i] == 0 {
			begin = i
			break
		}
	}

	p := Period{
		InDrawdown:   true,
		MaxDrawdown:  dd[trough],
		Begin:        dates[begin],
		Trough:       dates[trough],
		Days:         days(dates[begin], dates[trough]),
		RecoveryDays: -1,
	}

	for i := trough + 1; i < len(dd); i++ {
		if dd[i] == 0 {
			p.Recovered = true
			p.Recovery = dates[i]
			p.RecoveryDays = days(dates[trough], dates[i])
			break
		}
	}

	return dd, p, nil
}

// MaximumDrawDown returns the largest peak-to-trough loss of the cumulative
// sum of returns, as a positive number, in a single pass:
// the running sum resets to 0 whenever it is non-negative and the most
// negative value it ever reaches is the answer.
//
// With log returns the relative NAV drawdown is 1 - exp(-result) (see
// FromLogReturns). Non-finite returns count as 0.
func MaximumDrawDown(returns []float64) float64 {
	var minAll, sumHere float64
	for _, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			r = 0
		}
		sumHere += r
		if sumHere < minAll {
			minAll = sumHere
		} else if sumHere >= 0 {
			sumHere = 0
		}
	}
	return -minAll
}

// FromLogReturns converts MaximumDrawDown of a log-return series into the
// relative drawdown magnitude of the underlying NAV.
func FromLogReturns(logReturns []float64) float64 {
	return 1 - math.Exp(-MaximumDrawDown(logReturns))
}
