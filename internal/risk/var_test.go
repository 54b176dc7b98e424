package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenReturns = []float64{0.04, -0.05, 0.01, 0.07, -0.01, 0.02, 0.03, -0.03, 0.05, 0.06}

func TestHistoricalVaR(t *testing.T) {
	tests := []struct {
		confidence float64
		wantVaR    float64
		wantCVaR   float64
	}{
		{0.95, 0.05, 0.05},
		{0.90, 0.03, 0.04},
		{0.80, 0.01, 0.03},
	}

	for _, tt := range tests {
		got, err := HistoricalVaR(tenReturns, tt.confidence)
		require.NoError(t, err)
		assert.Equal(t, MethodHistorical, got.Method)
		assert.InDelta(t, tt.wantVaR, got.VaR, 1e-12, "confidence %v", tt.confidence)
		assert.InDelta(t, tt.wantCVaR, got.CVaR, 1e-12, "confidence %v", tt.confidence)
	}
}

func TestHistoricalVaR_NoLosses(t *testing.T) {
	got, err := HistoricalVaR([]float64{0.01, 0.02, math.NaN(), 0.03}, 0.99)
	require.NoError(t, err)
	assert.Zero(t, got.VaR)
	assert.Zero(t, got.CVaR)
}

func TestParametricVaR(t *testing.T) {
	got, err := ParametricVaR([]float64{0.01, -0.01}, 0.95)
	require.NoError(t, err)

	std := math.Sqrt(0.0002)
	assert.Equal(t, MethodParametric, got.Method)
	assert.InDelta(t, 1.6448536*std, got.VaR, 1e-6)
	assert.InDelta(t, 0.029171, got.CVaR, 1e-5)
	assert.Greater(t, got.CVaR, got.VaR)
}

func TestParametricVaR_PositiveDrift(t *testing.T) {
	got, err := ParametricVaR([]float64{0.10, 0.11, 0.12}, 0.95)
	require.NoError(t, err)
	assert.Zero(t, got.VaR)
	assert.Zero(t, got.CVaR)
}

func TestTailRisk(t *testing.T) {
	got, err := TailRisk(tenReturns, []float64{0.95, 0.99})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, MethodHistorical, got[0].Method)
	assert.Equal(t, MethodParametric, got[1].Method)
	assert.Equal(t, 0.99, got[2].Confidence)

	// Higher confidence never reports a smaller loss.
	assert.GreaterOrEqual(t, got[3].VaR, got[1].VaR)
}

func TestVaRErrors(t *testing.T) {
	_, err := HistoricalVaR(nil, 0.95)
	assert.ErrorIs(t, err, ErrEmptyReturns)

	_, err = ParametricVaR([]float64{0.01}, 0.95)
	assert.ErrorIs(t, err, ErrEmptyReturns)

	for _, c := range []float64{0, 1, -0.5, math.NaN()} {
		_, err = HistoricalVaR(tenReturns, c)
		assert.ErrorIs(t, err, ErrConfidence)
	}

	_, err = TailRisk(tenReturns, []float64{0.95, 1.5})
	assert.ErrorIs(t, err, ErrConfidence)
}
