package navseries

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// Return Type & Convention
// =============================================================================

// ReturnType selects how period returns are derived from NAV.
type ReturnType string

const (
	ReturnSimple ReturnType = "simple" // v[t]/v[t-1] - 1
	ReturnLog    ReturnType = "log"    // ln(v[t]/v[t-1])
)

// ParseReturnType accepts "simple" or "log".
func ParseReturnType(s string) (ReturnType, error) {
	switch ReturnType(s) {
	case ReturnSimple, ReturnLog:
		return ReturnType(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownReturn)
	}
}

// Returns converts NAV values into len(values)-1 period returns.
func Returns(values []float64, kind ReturnType) ([]float64, error) {
	if len(values) < 2 {
		return []float64{}, nil
	}

	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		ratio := values[i] / values[i-1]
		switch kind {
		case ReturnSimple:
			out[i-1] = ratio - 1
		case ReturnLog:
			out[i-1] = math.Log(ratio)
		default:
			return nil, fmt.Errorf("%q: %w", kind, ErrUnknownReturn)
		}
	}
	return out, nil
}

// ReturnsWithSentinel is Returns with a leading NaN so the result stays
// index-aligned with the NAV (len(values) points).
func ReturnsWithSentinel(values []float64, kind ReturnType) ([]float64, error) {
	r, err := Returns(values, kind)
	if err != nil {
		return nil, err
	}
	return append([]float64{math.NaN()}, r...), nil
}

// Returns is the Series form of the package-level Returns.
func (s *Series) Returns(kind ReturnType) ([]float64, error) {
	return Returns(s.values, kind)
}

// Clean replaces NaN and ±Inf with fill. With inplace the argument itself is
// modified and returned; otherwise a copy is.
func Clean(arr []float64, inplace bool, fill float64) []float64 {
	res := arr
	if !inplace {
		res = make([]float64, len(arr))
		copy(res, arr)
	}
	for i, v := range res {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			res[i] = fill
		}
	}
	return res
}

// =============================================================================
// Sampling frequency
// =============================================================================

// Frequency is the observation frequency of a NAV series.
type Frequency string

const (
	Daily  Frequency = "D"
	Weekly Frequency = "W"
)

// PeriodsPerYear returns the annualization factor for the frequency.
func (f Frequency) PeriodsPerYear() int {
	if f == Weekly {
		return 52
	}
	return 250
}

// DetectFrequency classifies a series as weekly when its calendar span is
// longer than a daily series of the same length would cover (251 trading
// days per 365 calendar days).
func DetectFrequency(dates []time.Time) Frequency {
	if len(dates) < 2 {
		return Daily
	}
	span := dates[len(dates)-1].Sub(dates[0])
	daily := time.Duration(float64(len(dates)) * 365 / 251 * float64(24*time.Hour))
	if span > daily {
		return Weekly
	}
	return Daily
}
