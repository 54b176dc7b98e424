package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Euclid-Jie/nav-analysis/internal/analysisconfig"
	"github.com/Euclid-Jie/nav-analysis/internal/navseries"
	"github.com/Euclid-Jie/nav-analysis/pkg/config"
	"github.com/Euclid-Jie/nav-analysis/pkg/logger"
)

// businessDays returns n weekdays starting at start.
func businessDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

func wave(t *testing.T, name string, dates []time.Time, phase float64) *navseries.Series {
	t.Helper()
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = 1 + 0.1*math.Sin(float64(i)/5+phase) + 0.002*float64(i)
	}
	s, err := navseries.New(name, dates, values)
	require.NoError(t, err)
	return s
}

func newTestAnalyzer() (*Analyzer, *bytes.Buffer) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&config.Config{Env: "test", LogLevel: "info", LogFormat: "json"}, &buf)
	return NewAnalyzer(log), &buf
}

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSingle_FundOnly(t *testing.T) {
	a, buf := newTestAnalyzer()
	nav := wave(t, "fund", businessDays(jan1, 60), 0)

	report, err := a.Single(context.Background(), analysisconfig.Default(), nav, nil)
	require.NoError(t, err)

	assert.Len(t, report.ConfigHash, 64)
	assert.Nil(t, report.Benchmark)
	assert.Nil(t, report.Excess)
	assert.Empty(t, report.Warnings)

	f := report.Fund
	assert.Equal(t, "fund", f.Name)
	assert.Equal(t, 60, f.Observations)
	assert.Equal(t, 250, f.PeriodsPerYear)
	assert.Equal(t, 59, f.Metrics.Periods)
	assert.Len(t, f.Drawdown, 60)
	assert.NotNil(t, f.Episodes)
	assert.True(t, f.MaxDrawdown.InDrawdown)
	assert.Less(t, f.MaxDrawdown.MaxDrawdown, 0.0)
	// 59 returns, window 20
	assert.Len(t, f.RollingVolatility, 40)
	assert.NotEmpty(t, f.Monthly)
	assert.NotEmpty(t, f.Weekly)
	assert.Contains(t, f.Yearly, 2024)
	require.Len(t, f.TailRisk, 4)
	assert.Greater(t, f.TailRisk[0].VaR, 0.0)
	assert.GreaterOrEqual(t, f.TailRisk[0].CVaR, f.TailRisk[0].VaR)

	// normalized
	assert.Equal(t, 0.0, f.Drawdown[0].Value)
	assert.InDelta(t, nav.Values()[59]/nav.Values()[0], f.LastNAV, 1e-12)

	assert.Contains(t, buf.String(), "NAV analysis completed")
	assert.Contains(t, buf.String(), `"series":"fund"`)
}

func TestSingle_Period(t *testing.T) {
	a, _ := newTestAnalyzer()
	dates := businessDays(jan1, 60)
	nav := wave(t, "fund", dates, 0)

	cfg := analysisconfig.Default()
	cfg.Begin = dates[10].Format(navseries.DateLayout)
	cfg.End = dates[40].Format(navseries.DateLayout)

	report, err := a.Single(context.Background(), cfg, nav, nil)
	require.NoError(t, err)
	assert.Equal(t, dates[10], report.Fund.Begin)
	assert.Equal(t, dates[40], report.Fund.End)
	assert.Equal(t, 31, report.Fund.Observations)
}

func TestSingle_Benchmark(t *testing.T) {
	a, _ := newTestAnalyzer()
	dates := businessDays(jan1, 60)
	nav := wave(t, "fund", dates, 0)

	// identical path under an index symbol, starting five days later
	later := wave(t, "SHSE.000300", dates, 0)
	bench, err := later.Between(dates[5], time.Time{})
	require.NoError(t, err)

	report, err := a.Single(context.Background(), analysisconfig.Default(), nav, bench)
	require.NoError(t, err)

	assert.Equal(t, dates[5], report.Fund.Begin)
	require.NotNil(t, report.Benchmark)
	assert.Equal(t, "沪深300", report.Benchmark.Name)

	require.NotNil(t, report.Excess)
	assert.Equal(t, "excess_fund", report.Excess.Name)
	assert.False(t, report.Excess.MaxDrawdown.InDrawdown)
	assert.Empty(t, report.Excess.Episodes)
	assert.InDelta(t, 0.0, report.Excess.Metrics.TotalReturn, 1e-12)

	require.NotEmpty(t, report.RollingCorrelation)
	for _, p := range report.RollingCorrelation {
		assert.InDelta(t, 1.0, p.Value, 1e-9)
	}
}

func TestSingle_Errors(t *testing.T) {
	a, _ := newTestAnalyzer()
	nav := wave(t, "fund", businessDays(jan1, 30), 0)

	cfg := analysisconfig.Default()
	cfg.ReturnType = "arith"
	_, err := a.Single(context.Background(), cfg, nav, nil)
	var verr analysisconfig.ValidationError
	assert.True(t, errors.As(err, &verr))

	cfg = analysisconfig.Default()
	cfg.Begin = "2030-01-01"
	_, err = a.Single(context.Background(), cfg, nav, nil)
	assert.ErrorIs(t, err, navseries.ErrEmptySeries)

	one, err := nav.Between(time.Time{}, nav.First())
	require.NoError(t, err)
	_, err = a.Single(context.Background(), analysisconfig.Default(), one, nil)
	assert.ErrorIs(t, err, ErrTooShort)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Single(ctx, analysisconfig.Default(), nav, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingle_ReportEncodes(t *testing.T) {
	a, _ := newTestAnalyzer()
	dates := businessDays(jan1, 40)
	nav := wave(t, "fund", dates, 0)
	bench := wave(t, "SHSE.000905", dates, 1)

	report, err := a.Single(context.Background(), analysisconfig.Default(), nav, bench)
	require.NoError(t, err)

	_, err = json.Marshal(report)
	assert.NoError(t, err)
	_, err = yaml.Marshal(report)
	assert.NoError(t, err)
}

func TestCompare(t *testing.T) {
	a, buf := newTestAnalyzer()
	cal := businessDays(jan1, 60)
	first := wave(t, "alpha", cal, 0)
	second, err := wave(t, "beta", cal, 2).Between(cal[10], time.Time{})
	require.NoError(t, err)

	cmp, err := a.Compare(context.Background(), analysisconfig.Default(), cal,
		[]*navseries.Series{first, second}, nil)
	require.NoError(t, err)

	assert.Equal(t, cal[10], cmp.Begin)
	assert.Equal(t, cal[59], cmp.End)
	require.Len(t, cmp.Rows, 2)
	assert.Equal(t, "alpha", cmp.Rows[0].Name)
	assert.Equal(t, "beta", cmp.Rows[1].Name)
	assert.Equal(t, 49, cmp.Rows[0].Metrics.Periods)
	assert.Nil(t, cmp.Benchmark)
	assert.Contains(t, buf.String(), "NAV comparison completed")
}

func TestCompare_Benchmark(t *testing.T) {
	a, _ := newTestAnalyzer()
	cal := businessDays(jan1, 40)
	fund := wave(t, "alpha", cal, 0)
	bench := wave(t, "SHSE.000852", cal, 0)

	cmp, err := a.Compare(context.Background(), analysisconfig.Default(), cal,
		[]*navseries.Series{fund}, bench)
	require.NoError(t, err)

	require.NotNil(t, cmp.Benchmark)
	assert.Equal(t, "中证1000", cmp.Benchmark.Name)
	require.Len(t, cmp.Rows, 1)
	assert.Equal(t, "excess_alpha", cmp.Rows[0].Name)
	assert.InDelta(t, 0.0, cmp.Rows[0].Metrics.TotalReturn, 1e-12)
	assert.False(t, cmp.Rows[0].MaxDrawdown.InDrawdown)
}

func TestCompare_Errors(t *testing.T) {
	a, _ := newTestAnalyzer()
	cal := businessDays(jan1, 10)

	_, err := a.Compare(context.Background(), analysisconfig.Default(), cal, nil, nil)
	assert.ErrorIs(t, err, ErrNoSeries)

	late, err := navseries.New("late", []time.Time{cal[9]}, []float64{1})
	require.NoError(t, err)
	_, err = a.Compare(context.Background(), analysisconfig.Default(), cal, []*navseries.Series{late}, nil)
	assert.ErrorIs(t, err, ErrTooShort)
}

func writeNAV(t *testing.T, dir, name string, s *navseries.Series) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("日期,累计净值\n")
	dates, values := s.Dates(), s.Values()
	for i := range dates {
		fmt.Fprintf(&b, "%s,%.6f\n", dates[i].Format(navseries.DateLayout), values[i])
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestBatch(t *testing.T) {
	a, buf := newTestAnalyzer()
	dir := t.TempDir()
	dates := businessDays(jan1, 50)

	good := writeNAV(t, dir, "alpha.csv", wave(t, "alpha", dates, 0))
	bad := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(bad, []byte("日期,累计净值\nnot-a-date,1\n"), 0o600))
	missing := filepath.Join(dir, "missing.csv")

	res, err := a.Batch(context.Background(), analysisconfig.Default(), []string{good, bad, missing}, nil)
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "alpha", res.Rows[0].Name)
	assert.Contains(t, res.Rows[0].YearlyReturns, 2024)

	require.Len(t, res.Failures, 2)
	assert.Equal(t, bad, res.Failures[0].Name)
	assert.Equal(t, missing, res.Failures[1].Name)
	assert.Contains(t, buf.String(), "NAV analysis failed")
	assert.Contains(t, buf.String(), "NAV batch completed")
}

func TestBatch_Benchmark(t *testing.T) {
	a, _ := newTestAnalyzer()
	dir := t.TempDir()
	dates := businessDays(jan1, 50)
	path := writeNAV(t, dir, "alpha.csv", wave(t, "alpha", dates, 0))

	res, err := a.Batch(context.Background(), analysisconfig.Default(), []string{path}, wave(t, "SHSE.000300", dates, 1))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "excess_alpha", res.Rows[0].Name)
	assert.Empty(t, res.Failures)
}
