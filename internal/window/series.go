package window

import "gonum.org/v1/gonum/mat"

// Column wraps a 1D series as a T×1 matrix. The data is copied.
func Column(x []float64) (*mat.Dense, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	data := make([]float64, len(x))
	copy(data, x)
	return mat.NewDense(len(x), 1, data), nil
}

// SumSeries is Sum for a single series.
func SumSeries(x []float64, size, minPeriods int) ([]float64, error) {
	return onSeries(x, func(m *mat.Dense) (*mat.Dense, error) { return Sum(m, size, minPeriods) })
}

// MeanSeries is Mean for a single series.
func MeanSeries(x []float64, size, minPeriods int) ([]float64, error) {
	return onSeries(x, func(m *mat.Dense) (*mat.Dense, error) { return Mean(m, size, minPeriods) })
}

// StdSeries is Std for a single series.
func StdSeries(x []float64, size, minPeriods int) ([]float64, error) {
	return onSeries(x, func(m *mat.Dense) (*mat.Dense, error) { return Std(m, size, minPeriods) })
}

// CovSeries is Cov for a pair of series.
func CovSeries(x, y []float64, size, minPeriods int) ([]float64, error) {
	ym, err := Column(y)
	if err != nil {
		return nil, err
	}
	return onSeries(x, func(m *mat.Dense) (*mat.Dense, error) { return Cov(m, ym, size, minPeriods) })
}

// CorrelationSeries is Correlation for a pair of series.
func CorrelationSeries(x, y []float64, size, minPeriods int) ([]float64, error) {
	ym, err := Column(y)
	if err != nil {
		return nil, err
	}
	return onSeries(x, func(m *mat.Dense) (*mat.Dense, error) { return Correlation(m, ym, size, minPeriods) })
}

func onSeries(x []float64, fn func(*mat.Dense) (*mat.Dense, error)) ([]float64, error) {
	m, err := Column(x)
	if err != nil {
		return nil, err
	}
	out, err := fn(m)
	if err != nil {
		return nil, err
	}
	return mat.Col(nil, 0, out), nil
}
