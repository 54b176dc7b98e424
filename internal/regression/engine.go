// Package regression solves batches of independent ordinary-least-squares
// problems, one per row of a response matrix, and slides that solver over
// univariate series for rolling factor exposure.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Euclid-Jie/nav-analysis/internal/window"
	"github.com/Euclid-Jie/nav-analysis/pkg/logger"
)

// DefaultCondThreshold is the Gram-matrix condition number above which a row
// counts as ill-conditioned.
const DefaultCondThreshold = 50.0

// rcond matches the usual pseudo-inverse cutoff: singular values at or below
// rcond·σ_max are treated as zero.
const rcond = 1e-15

var (
	ErrEmptyInput     = errors.New("empty response")
	ErrNoRegressors   = errors.New("at least one regressor is required")
	ErrShapeMismatch  = errors.New("regressor shape does not match response")
	ErrWindowTooLarge = window.ErrWindowTooLarge
)

// Result holds the per-row output of a regression batch.
//
// For Regress (row-oriented) with Y of shape T×N and K coefficients:
//
//	Betas     T×K
//	Residuals T×N
//	TValues   T×K
//	F, R2     length T
//
// RegressByColumns returns the transposed layout (Betas and TValues K×N, F
// and R2 of length N). When an intercept is requested it is the LAST
// coefficient.
type Result struct {
	Betas     *mat.Dense
	Residuals *mat.Dense
	TValues   *mat.Dense
	F         []float64
	R2        []float64

	// Cond is the 2-norm condition number of XᵀX for each solved problem.
	Cond []float64
	// IllConditioned counts problems whose Cond exceeded the threshold.
	IllConditioned int
}

// Engine runs regression batches. It carries no state between calls.
type Engine struct {
	logger        *logger.Logger
	condThreshold float64
}

// NewEngine creates a regression engine. A nil logger disables the
// ill-conditioning warning (the count is still reported in Result).
// condThreshold <= 0 selects DefaultCondThreshold.
func NewEngine(log *logger.Logger, condThreshold float64) *Engine {
	if condThreshold <= 0 {
		condThreshold = DefaultCondThreshold
	}
	return &Engine{
		logger:        log,
		condThreshold: condThreshold,
	}
}

// Regress solves one OLS problem per row of y.
//
// y is T×N; xs holds K matrices of the same shape, xs[k].At(t, n) being the
// k-th regressor of observation n in problem t. Non-finite values in y and
// xs are replaced with 0 (no contribution) rather than dropping rows.
func (e *Engine) Regress(y *mat.Dense, xs []*mat.Dense, intercept bool) (*Result, error) {
	if err := checkShapes(y, xs); err != nil {
		return nil, err
	}
	return e.solve(y, xs, intercept), nil
}

// RegressByColumns runs the same algorithm with the axes swapped: one
// problem per column of y, whose observations are the rows. Outputs are
// returned transposed (see Result).
func (e *Engine) RegressByColumns(y *mat.Dense, xs []*mat.Dense, intercept bool) (*Result, error) {
	if err := checkShapes(y, xs); err != nil {
		return nil, err
	}

	yT := mat.DenseCopyOf(y.T())
	xsT := make([]*mat.Dense, len(xs))
	for k, x := range xs {
		xsT[k] = mat.DenseCopyOf(x.T())
	}

	res := e.solve(yT, xsT, intercept)
	res.Betas = mat.DenseCopyOf(res.Betas.T())
	res.Residuals = mat.DenseCopyOf(res.Residuals.T())
	res.TValues = mat.DenseCopyOf(res.TValues.T())
	return res, nil
}

// Rolling regresses y on xs over every trailing window of the given size.
// Result row i describes the window ending at index i+size-1; pairing rows
// with dates is the caller's job.
func (e *Engine) Rolling(y []float64, xs [][]float64, size int, intercept bool) (*Result, error) {
	if len(y) == 0 {
		return nil, ErrEmptyInput
	}
	if len(xs) == 0 {
		return nil, ErrNoRegressors
	}
	for k, x := range xs {
		if len(x) != len(y) {
			return nil, fmt.Errorf("regressor %d has %d points, response has %d: %w", k, len(x), len(y), ErrShapeMismatch)
		}
	}

	yRoll, err := rollMatrix(y, size)
	if err != nil {
		return nil, err
	}
	xsRoll := make([]*mat.Dense, len(xs))
	for k, x := range xs {
		if xsRoll[k], err = rollMatrix(x, size); err != nil {
			return nil, err
		}
	}

	return e.solve(yRoll, xsRoll, intercept), nil
}

// =============================================================================
// Internals
// =============================================================================

func (e *Engine) solve(y *mat.Dense, xs []*mat.Dense, intercept bool) *Result {
	rows, obs := y.Dims()
	k := len(xs)
	if intercept {
		k++
	}

	res := &Result{
		Betas:     mat.NewDense(rows, k, nil),
		Residuals: mat.NewDense(rows, obs, nil),
		TValues:   mat.NewDense(rows, k, nil),
		F:         make([]float64, rows),
		R2:        make([]float64, rows),
		Cond:      make([]float64, rows),
	}

	design := mat.NewDense(obs, k, nil)
	response := make([]float64, obs)

	for t := 0; t < rows; t++ {
		for n := 0; n < obs; n++ {
			response[n] = finiteOrZero(y.At(t, n))
			for j, x := range xs {
				design.Set(n, j, finiteOrZero(x.At(t, n)))
			}
			if intercept {
				design.Set(n, k-1, 1)
			}
		}

		fit := fitRow(design, response)

		res.Betas.SetRow(t, fit.beta)
		res.Residuals.SetRow(t, fit.resid)
		res.TValues.SetRow(t, fit.tValues)
		res.F[t] = fit.f
		res.R2[t] = fit.r2
		res.Cond[t] = fit.cond
		if fit.cond > e.condThreshold {
			res.IllConditioned++
		}
	}

	// One aggregate warning per batch, never per row.
	if res.IllConditioned > 0 && e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"ill_conditioned": res.IllConditioned,
			"periods":         rows,
			"threshold":       e.condThreshold,
		}).Warnf("condition number of OLS design is large: %d times over %d periods", res.IllConditioned, rows)
	}

	return res
}

type rowFit struct {
	beta    []float64
	resid   []float64
	tValues []float64
	cond    float64
	f       float64
	r2      float64
}

// fitRow solves one design slice x (N×K) against y (N).
func fitRow(x *mat.Dense, y []float64) rowFit {
	n, k := x.Dims()

	var gram mat.Dense
	gram.Mul(x.T(), x)

	fit := rowFit{
		beta:    pinvSolve(x, y),
		resid:   make([]float64, n),
		tValues: make([]float64, k),
		cond:    mat.Cond(&gram, 2),
	}

	var fitted mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(k, fit.beta))
	for i := 0; i < n; i++ {
		fit.resid[i] = y[i] - fitted.AtVec(i)
	}
	rss := floats.Dot(fit.resid, fit.resid)
	dof := float64(n - k)

	// ⚠️ Non-standard standard error: one pooled denominator over the whole
	// N×K design slice instead of the diagonal of (XᵀX)⁻¹·RSS/(N-K). Kept
	// as-is so t-values stay comparable with historical reports.
	xMean := mat.Sum(x) / float64(n*k)
	var denom float64
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			d := x.At(i, j) - xMean
			denom += d * d
		}
	}
	se := math.Sqrt(rss / dof / denom)
	for j, b := range fit.beta {
		fit.tValues[j] = b / se
	}

	yMean := floats.Sum(y) / float64(n)
	var tss float64
	for _, v := range y {
		d := v - yMean
		tss += d * d
	}

	fit.f = ((tss - rss) / float64(k-1)) / (rss / dof)
	fit.r2 = 1 - rss/tss
	return fit
}

// pinvSolve returns pinv(x)·y using a thin SVD.
func pinvSolve(x *mat.Dense, y []float64) []float64 {
	n, k := x.Dims()
	beta := make([]float64, k)

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		for i := range beta {
			beta[i] = math.NaN()
		}
		return beta
	}

	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := rcond * s[0]
	yv := mat.NewVecDense(n, y)
	coef := mat.NewVecDense(len(s), nil)
	for i, sv := range s {
		if sv > cutoff {
			coef.SetVec(i, mat.Dot(u.ColView(i), yv)/sv)
		}
	}

	var b mat.VecDense
	b.MulVec(&v, coef)
	for i := range beta {
		beta[i] = b.AtVec(i)
	}
	return beta
}

// rollMatrix lays out the sliding windows of x as rows of a matrix.
func rollMatrix(x []float64, size int) (*mat.Dense, error) {
	slices, err := window.NewSlices(x, size)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(slices.Len(), slices.Size(), nil)
	for i, w := range slices.All() {
		out.SetRow(i, w)
	}
	return out, nil
}

func checkShapes(y *mat.Dense, xs []*mat.Dense) error {
	if y == nil || y.IsEmpty() {
		return ErrEmptyInput
	}
	if len(xs) == 0 {
		return ErrNoRegressors
	}

	rows, cols := y.Dims()
	for k, x := range xs {
		if x == nil || x.IsEmpty() {
			return fmt.Errorf("regressor %d is empty: %w", k, ErrShapeMismatch)
		}
		r, c := x.Dims()
		if r != rows || c != cols {
			return fmt.Errorf("regressor %d is %dx%d, response is %dx%d: %w", k, r, c, rows, cols, ErrShapeMismatch)
		}
	}
	return nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
