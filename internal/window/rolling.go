package window

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// =============================================================================
// Rolling moments
// =============================================================================
//
// Every function treats the first axis (rows) as time and each column as an
// independent series. result[t] describes the trailing window that ENDS at t.
// Windows at t < size-1 are under-filled: they simply contain fewer real
// observations. NaN values contribute neither to the sum nor to the count.
//
// All statistics are derived from cumulative sums:
//
//	window_sum[t] = cumsum[t] - cumsum[t-size]
//
// minPeriods == 0 means "unset". Sum and Mean then apply no gating, while the
// second-moment statistics (Std, Cov, Correlation) default to the window size.

// Sum returns the trailing-window sum of non-NaN values. Positions whose
// window holds fewer than minPeriods non-NaN values are NaN.
func Sum(x *mat.Dense, size, minPeriods int) (*mat.Dense, error) {
	if err := checkWindow(x, size, minPeriods); err != nil {
		return nil, err
	}

	sum, count := sumWithCount(x, size)
	if minPeriods > 0 {
		gate(sum, count, minPeriods)
	}
	return sum, nil
}

// Mean returns the trailing-window mean of non-NaN values. Windows with no
// observation (0/0) are NaN.
func Mean(x *mat.Dense, size, minPeriods int) (*mat.Dense, error) {
	if err := checkWindow(x, size, minPeriods); err != nil {
		return nil, err
	}
	return mean(x, size, minPeriods), nil
}

// Std returns the trailing-window sample standard deviation.
//
// The population variance E[x²]-E[x]² is clipped at 0 (floating-point error
// can push it slightly negative) and then Bessel-corrected by n/(n-1), where
// n is the non-NaN count of the window. Positions with n < 2 are NaN.
func Std(x *mat.Dense, size, minPeriods int) (*mat.Dense, error) {
	if size < 2 {
		return nil, fmt.Errorf("std window %d must be > 1: %w", size, ErrWindowSize)
	}
	minPeriods = defaultMinPeriods(minPeriods, size)
	if err := checkWindow(x, size, minPeriods); err != nil {
		return nil, err
	}
	return std(x, size, minPeriods), nil
}

// Cov returns the trailing-window pairwise-complete sample covariance of
// every column of x against y. y must either match x or be a single column,
// in which case it is broadcast against all columns of x.
//
// A position where x or y is NaN is dropped from both series.
func Cov(x, y *mat.Dense, size, minPeriods int) (*mat.Dense, error) {
	if size < 2 {
		return nil, fmt.Errorf("cov window %d must be > 1: %w", size, ErrWindowSize)
	}
	minPeriods = defaultMinPeriods(minPeriods, size)
	if err := checkWindow(x, size, minPeriods); err != nil {
		return nil, err
	}
	yb, err := broadcast(x, y)
	if err != nil {
		return nil, err
	}

	xm, ym := pairMask(x, yb, isNaN)
	return cov(xm, ym, size, minPeriods), nil
}

// Correlation returns cov(x,y) / (std(x)·std(y)) over the trailing window.
// Positions where either deviation is zero (or undefined) are NaN.
func Correlation(x, y *mat.Dense, size, minPeriods int) (*mat.Dense, error) {
	if size < 2 {
		return nil, fmt.Errorf("correlation window %d must be > 1: %w", size, ErrWindowSize)
	}
	minPeriods = defaultMinPeriods(minPeriods, size)
	if err := checkWindow(x, size, minPeriods); err != nil {
		return nil, err
	}
	yb, err := broadcast(x, y)
	if err != nil {
		return nil, err
	}

	xm, ym := pairMask(x, yb, notFinite)
	xStd := std(xm, size, minPeriods)
	yStd := std(ym, size, minPeriods)
	c := cov(xm, ym, size, minPeriods)

	rows, cols := c.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			denom := xStd.At(i, j) * yStd.At(i, j)
			if denom == 0 || math.IsNaN(denom) {
				out.Set(i, j, math.NaN())
				continue
			}
			out.Set(i, j, c.At(i, j)/denom)
		}
	}
	return out, nil
}

// =============================================================================
// Internals
// =============================================================================

// sumWithCount returns, for every cell, the sum of the non-NaN values in the
// trailing window and the number of those values.
func sumWithCount(x *mat.Dense, size int) (sum, count *mat.Dense) {
	rows, cols := x.Dims()
	sum = mat.NewDense(rows, cols, nil)
	count = mat.NewDense(rows, cols, nil)

	vals := make([]float64, rows)
	valid := make([]float64, rows)
	accSum := make([]float64, rows)
	accCnt := make([]float64, rows)

	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			v := x.At(i, j)
			if math.IsNaN(v) {
				vals[i], valid[i] = 0, 0
				continue
			}
			vals[i], valid[i] = v, 1
		}

		floats.CumSum(accSum, vals)
		floats.CumSum(accCnt, valid)

		// Walk backwards so accSum[t-size] is still the raw cumulative value.
		for t := rows - 1; t >= size; t-- {
			accSum[t] -= accSum[t-size]
			accCnt[t] -= accCnt[t-size]
		}

		sum.SetCol(j, accSum)
		count.SetCol(j, accCnt)
	}
	return sum, count
}

func mean(x *mat.Dense, size, minPeriods int) *mat.Dense {
	sum, count := sumWithCount(x, size)
	rows, cols := sum.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			n := count.At(i, j)
			if n == 0 || (minPeriods > 0 && n < float64(minPeriods)) {
				sum.Set(i, j, math.NaN())
				continue
			}
			sum.Set(i, j, sum.At(i, j)/n)
		}
	}
	return sum
}

func std(x *mat.Dense, size, minPeriods int) *mat.Dense {
	m := mean(x, size, minPeriods)

	var sq mat.Dense
	sq.MulElem(x, x)
	sqMean := mean(&sq, size, minPeriods)

	_, count := sumWithCount(x, size)

	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			n := count.At(i, j)
			if n < 2 || n < float64(minPeriods) {
				out.Set(i, j, math.NaN())
				continue
			}
			mu := m.At(i, j)
			// math.Max keeps NaN, matching the gated mean.
			variance := math.Max(sqMean.At(i, j)-mu*mu, 0)
			out.Set(i, j, math.Sqrt(variance*n/(n-1)))
		}
	}
	return out
}

func cov(x, y *mat.Dense, size, minPeriods int) *mat.Dense {
	xMean := mean(x, size, 0)
	yMean := mean(y, size, 0)

	var xy mat.Dense
	xy.MulElem(x, y)
	xyMean := mean(&xy, size, minPeriods)
	_, count := sumWithCount(&xy, size)

	rows, cols := xyMean.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			n := count.At(i, j)
			if n < 2 {
				out.Set(i, j, math.NaN())
				continue
			}
			c := xyMean.At(i, j) - xMean.At(i, j)*yMean.At(i, j)
			out.Set(i, j, c*n/(n-1))
		}
	}
	return out
}

// gate replaces sums whose window count is below minPeriods with NaN.
func gate(sum, count *mat.Dense, minPeriods int) {
	rows, cols := sum.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if count.At(i, j) < float64(minPeriods) {
				sum.Set(i, j, math.NaN())
			}
		}
	}
}

// broadcast returns y shaped like x. A single-column y is tiled.
func broadcast(x, y *mat.Dense) (*mat.Dense, error) {
	if y == nil || y.IsEmpty() {
		return nil, fmt.Errorf("y: %w", ErrEmptyInput)
	}
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("x has %d rows, y has %d: %w", xr, yr, ErrShapeMismatch)
	}
	if yc == xc {
		return y, nil
	}
	if yc != 1 {
		return nil, fmt.Errorf("x has %d columns, y has %d: %w", xc, yc, ErrShapeMismatch)
	}

	out := mat.NewDense(xr, xc, nil)
	col := mat.Col(nil, 0, y)
	for j := 0; j < xc; j++ {
		out.SetCol(j, col)
	}
	return out, nil
}

// pairMask returns copies of x and y where every position at which drop(x*y)
// holds is NaN in both.
func pairMask(x, y *mat.Dense, drop func(float64) bool) (*mat.Dense, *mat.Dense) {
	rows, cols := x.Dims()
	xm := mat.NewDense(rows, cols, nil)
	ym := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			xv, yv := x.At(i, j), y.At(i, j)
			if drop(xv * yv) {
				xm.Set(i, j, math.NaN())
				ym.Set(i, j, math.NaN())
				continue
			}
			xm.Set(i, j, xv)
			ym.Set(i, j, yv)
		}
	}
	return xm, ym
}

func isNaN(v float64) bool { return math.IsNaN(v) }

func notFinite(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

func defaultMinPeriods(minPeriods, size int) int {
	if minPeriods == 0 {
		return size
	}
	return minPeriods
}

func checkWindow(x *mat.Dense, size, minPeriods int) error {
	if x == nil || x.IsEmpty() {
		return ErrEmptyInput
	}
	if size < 1 {
		return fmt.Errorf("window %d: %w", size, ErrWindowSize)
	}
	rows, _ := x.Dims()
	if size > rows {
		return fmt.Errorf("window %d over %d rows: %w", size, rows, ErrWindowTooLarge)
	}
	if minPeriods < 0 || minPeriods > size {
		return fmt.Errorf("min periods %d with window %d: %w", minPeriods, size, ErrMinPeriods)
	}
	return nil
}
