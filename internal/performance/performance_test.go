package performance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
)

func day(s string) time.Time {
	d, err := time.Parse(navseries.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func series(t *testing.T, dates []string, values []float64) *navseries.Series {
	t.Helper()
	ds := make([]time.Time, len(dates))
	for i, s := range dates {
		ds[i] = day(s)
	}
	s, err := navseries.New("fund", ds, values)
	require.NoError(t, err)
	return s
}

func TestCurveAnalysis(t *testing.T) {
	m, err := CurveAnalysis([]float64{0.01, -0.02, 0.03, math.NaN()}, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, m.Periods)
	assert.InDelta(t, 0.02, m.TotalReturn, 1e-12)
	assert.InDelta(t, 0.02, m.AnnualReturn, 1e-12)
	assert.InDelta(t, math.Sqrt(0.000325), m.Volatility, 1e-12)
	assert.InDelta(t, 2*math.Sqrt(0.000325), m.AnnualVol, 1e-12)
	assert.InDelta(t, 0.02/(2*math.Sqrt(0.000325)), m.Sharpe, 1e-9)
	assert.InDelta(t, 0.02, m.MaxDrawdown, 1e-12)
}

func TestCurveAnalysis_FlatSeries(t *testing.T) {
	m, err := CurveAnalysis([]float64{0, 0, 0}, 250)
	require.NoError(t, err)
	assert.Zero(t, m.AnnualVol)
	assert.Zero(t, m.Sharpe)
	assert.Zero(t, m.MaxDrawdown)
}

func TestCurveAnalysis_Errors(t *testing.T) {
	_, err := CurveAnalysis(nil, 250)
	assert.ErrorIs(t, err, ErrEmptyReturns)

	_, err = CurveAnalysis([]float64{0.1}, 0)
	assert.Error(t, err)
}

func TestMonthlyReturns(t *testing.T) {
	s := series(t,
		[]string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-29", "2024-03-01", "2025-01-02"},
		[]float64{1.0, 1.1, 0.99, 1.089, 1.089, 1.2})

	rows, err := MonthlyReturns(s, time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2024, rows[0].Year)
	assert.Equal(t, map[int]float64{1: 0.1, 2: -0.01, 3: 0}, rows[0].Months)
	assert.Equal(t, 0.6667, rows[0].WinRatio)

	assert.Equal(t, 2025, rows[1].Year)
	assert.Equal(t, map[int]float64{1: 0.1019}, rows[1].Months)
	assert.Equal(t, 1.0, rows[1].WinRatio)
}

func TestMonthlyReturns_Start(t *testing.T) {
	s := series(t,
		[]string{"2024-01-30", "2024-01-31", "2024-02-01", "2024-02-29"},
		[]float64{1.0, 1.1, 0.99, 1.089})

	rows, err := MonthlyReturns(s, day("2024-02-01"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[int]float64{2: 0.1}, rows[0].Months)

	_, err = MonthlyReturns(s, day("2030-01-01"))
	assert.ErrorIs(t, err, navseries.ErrEmptySeries)
}

func TestWeeklyReturns(t *testing.T) {
	s := series(t,
		[]string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-08", "2024-01-10"},
		[]float64{1.0, 1.02, 1.05, 0.945, 0.945})

	// the week of 2024-01-08 is labelled 2024-01-12, after the last date
	got := WeeklyReturns(s, 0)
	require.Len(t, got, 1)
	assert.Equal(t, day("2024-01-05"), got[0].Label)
	assert.Equal(t, 0.05, got[0].Return)

	s = series(t,
		[]string{"2024-01-01", "2024-01-03", "2024-01-05", "2024-01-08", "2024-01-10", "2024-01-12"},
		[]float64{1.0, 1.02, 1.05, 0.945, 0.945, 0.9828})

	got = WeeklyReturns(s, 0)
	require.Len(t, got, 2)
	assert.Equal(t, day("2024-01-12"), got[1].Label)
	assert.Equal(t, -0.064, got[1].Return)

	got = WeeklyReturns(s, 1)
	require.Len(t, got, 1)
	assert.Equal(t, day("2024-01-12"), got[0].Label)
}

func TestBounds(t *testing.T) {
	upper, lower, err := Bounds(2, 1, 0.25, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.3, upper, 1e-12)
	assert.InDelta(t, 0.7, lower, 1e-12)

	_, _, err = Bounds(1, 1, 0.1, 2)
	assert.ErrorIs(t, err, ErrBounds)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.6667, Round(2.0/3.0, 4))
	assert.Equal(t, -0.5, Round(-0.5, 2))
}

func TestRollingVolatility(t *testing.T) {
	returns := []float64{1, -1, 1, -1, 1}
	dates := []time.Time{day("2024-01-01"), day("2024-01-02"), day("2024-01-03"), day("2024-01-04"), day("2024-01-05")}

	got, err := RollingVolatility(returns, dates, 2, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, dates[1], got[0].Date)
	for _, p := range got {
		assert.InDelta(t, 2*math.Sqrt2, p.Value, 1e-9)
	}

	_, err = RollingVolatility(returns, dates[:2], 2, 4)
	assert.ErrorIs(t, err, navseries.ErrLengthMismatch)

	_, err = RollingVolatility(returns, dates, 10, 4)
	assert.Error(t, err)
}

func TestRollingCorrelation(t *testing.T) {
	a := []float64{0.01, -0.02, 0.03, 0.00, 0.02, -0.01}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = 2 * v
	}
	dates := make([]time.Time, len(a))
	for i := range dates {
		dates[i] = day("2024-01-01").AddDate(0, 0, i)
	}

	got, err := RollingCorrelation(a, b, dates, 3)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for _, p := range got {
		assert.InDelta(t, 1.0, p.Value, 1e-9)
	}
}

func TestYearlyReturns(t *testing.T) {
	s := series(t,
		[]string{"2023-06-30", "2023-12-29", "2024-03-29", "2024-12-31"},
		[]float64{1.0, 1.1, 0.99, 1.21})

	got := YearlyReturns(s)
	assert.Equal(t, map[int]float64{2023: 0.1, 2024: 0.1}, got)
}

func TestTrailingReturn(t *testing.T) {
	s := series(t,
		[]string{"2024-01-02", "2024-01-05", "2024-01-12", "2024-01-19"},
		[]float64{1.0, 1.25, 1.0, 1.1})

	assert.InDelta(t, 0.1, TrailingReturn(s, day("2024-01-12")), 1e-12)
	assert.InDelta(t, 0.1, TrailingReturn(s, day("2024-01-15")), 1e-12)
	assert.InDelta(t, 1.1/1.25-1, TrailingReturn(s, day("2024-01-06")), 1e-12)
	// nothing before since: base is the first observation
	assert.InDelta(t, 0.1, TrailingReturn(s, day("2023-12-01")), 1e-12)
}
