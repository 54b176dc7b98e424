// Package risk measures the loss tail of a NAV return series.
//
// ⭐ SSOT: VaR and CVaR are losses expressed as positive numbers
// (VaR=0.05 means a 5% loss at the given confidence). A tail with no
// losses reports 0.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrEmptyReturns = errors.New("no finite returns")
	ErrConfidence   = errors.New("confidence must be in (0, 1)")
)

// Method is how a VaRResult was estimated.
type Method string

const (
	MethodHistorical Method = "historical" // empirical quantile of the returns
	MethodParametric Method = "parametric" // normal fit of mean and sample std
)

// VaRResult is the loss tail at one confidence level.
type VaRResult struct {
	Method     Method  `json:"method" yaml:"method"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	VaR        float64 `json:"var" yaml:"var"`
	CVaR       float64 `json:"cvar" yaml:"cvar"` // expected shortfall beyond VaR
}

// HistoricalVaR reads VaR off the sorted returns at index
// floor((1-confidence)*n); CVaR is the mean of the returns up to and
// including that index.
func HistoricalVaR(returns []float64, confidence float64) (VaRResult, error) {
	if err := checkConfidence(confidence); err != nil {
		return VaRResult{}, err
	}
	sorted := finite(returns)
	if len(sorted) == 0 {
		return VaRResult{}, ErrEmptyReturns
	}
	sort.Float64s(sorted)

	// The epsilon keeps 1-0.9 from flooring below 0.1.
	idx := int(math.Floor((1-confidence)*float64(len(sorted)) + 1e-9))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Method:     MethodHistorical,
		Confidence: confidence,
		VaR:        loss(sorted[idx]),
		CVaR:       loss(stat.Mean(sorted[:idx+1], nil)),
	}, nil
}

// ParametricVaR assumes normally distributed returns.
//
//	VaR  = z·σ - μ
//	CVaR = σ·φ(z)/(1-confidence) - μ
func ParametricVaR(returns []float64, confidence float64) (VaRResult, error) {
	if err := checkConfidence(confidence); err != nil {
		return VaRResult{}, err
	}
	r := finite(returns)
	if len(r) < 2 {
		return VaRResult{}, fmt.Errorf("%w: need 2, got %d", ErrEmptyReturns, len(r))
	}

	mean, std := stat.MeanStdDev(r, nil)
	z := distuv.UnitNormal.Quantile(confidence)

	return VaRResult{
		Method:     MethodParametric,
		Confidence: confidence,
		VaR:        math.Max(z*std-mean, 0),
		CVaR:       math.Max(std*distuv.UnitNormal.Prob(z)/(1-confidence)-mean, 0),
	}, nil
}

// TailRisk estimates both methods at every level, historical first.
func TailRisk(returns []float64, levels []float64) ([]VaRResult, error) {
	out := make([]VaRResult, 0, 2*len(levels))
	for _, c := range levels {
		h, err := HistoricalVaR(returns, c)
		if err != nil {
			return nil, err
		}
		p, err := ParametricVaR(returns, c)
		if err != nil {
			return nil, err
		}
		out = append(out, h, p)
	}
	return out, nil
}

func checkConfidence(c float64) error {
	if !(c > 0 && c < 1) {
		return fmt.Errorf("%w: %v", ErrConfidence, c)
	}
	return nil
}

func finite(returns []float64) []float64 {
	out := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) && !math.IsInf(r, 0) {
			out = append(out, r)
		}
	}
	return out
}

// loss flips a return into a positive loss, 0 for gains.
func loss(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
