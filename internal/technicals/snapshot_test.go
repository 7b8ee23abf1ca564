package technicals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSingleRowUsesNeutralDefaults(t *testing.T) {
	p, err := Calculate(barsFromCloses([]float64{100}), nil)
	require.NoError(t, err)

	sig := p.Latest()
	assert.Equal(t, 100.0, sig.Close)
	assert.Equal(t, 50.0, sig.RSI)
	assert.Equal(t, 50.0, sig.RSIPrev)
	assert.Equal(t, 0.0, sig.ADX)
	assert.Equal(t, 1.0, sig.VolumeRatio)
	assert.False(t, sig.Pivot.Valid)
	assert.False(t, sig.SqueezeOn)
}

func TestLatestMatchesSnapshotAtFinalRow(t *testing.T) {
	p, err := Calculate(barsFromCloses(rampCloses(120, 100, 0.5)), nil)
	require.NoError(t, err)
	assert.Equal(t, p.SnapshotAt(p.Len()-1), p.Latest())
}

func TestSnapshotAtReflectsWarmup(t *testing.T) {
	p, err := Calculate(barsFromCloses(rampCloses(60, 100, 1)), nil)
	require.NoError(t, err)

	early := p.SnapshotAt(10)
	assert.Equal(t, 50.0, early.RSI, "RSI defaults before its window fills")
	assert.Equal(t, 0.0, early.SMA50)
	assert.True(t, early.Pivot.Valid)

	late := p.SnapshotAt(59)
	assert.Equal(t, 100.0, late.RSI)
	assert.NotZero(t, late.SMA50)
	assert.NotZero(t, late.VWAPWeekly)
}

func TestComputeRiskMetricsDegenerateInputs(t *testing.T) {
	assert.Equal(t, RiskMetrics{}, ComputeRiskMetrics(nil))
	assert.Equal(t, RiskMetrics{}, ComputeRiskMetrics(barsFromCloses([]float64{100})))
}

func TestComputeRiskMetricsFlatSeries(t *testing.T) {
	risk := ComputeRiskMetrics(barsFromCloses(flatCloses(50, 100)))
	assert.Zero(t, risk.Volatility)
	assert.Zero(t, risk.Sharpe)
	assert.Zero(t, risk.MaxDrawdown)
}

func TestComputeRiskMetricsKnownDrawdown(t *testing.T) {
	// Returns +10% then -50%: equity runs 1.0 -> 1.1 -> 0.55.
	risk := ComputeRiskMetrics(barsFromCloses([]float64{100, 110, 55}))

	assert.InDelta(t, -0.5, risk.MaxDrawdown, 1e-9)

	// mean -0.2, sample std sqrt(0.18)
	std := math.Sqrt(0.18)
	assert.InDelta(t, std*math.Sqrt(252), risk.Volatility, 1e-9)
	assert.InDelta(t, -0.2/std*math.Sqrt(252), risk.Sharpe, 1e-9)
}

func TestComputeRiskMetricsUptrendHasPositiveSharpe(t *testing.T) {
	closes := make([]float64, 60)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		gain := 1.02
		if i%2 == 0 {
			gain = 1.005
		}
		closes[i] = closes[i-1] * gain
	}
	risk := ComputeRiskMetrics(barsFromCloses(closes))
	assert.Positive(t, risk.Volatility)
	assert.Positive(t, risk.Sharpe)
	assert.Zero(t, risk.MaxDrawdown, "no down day, no drawdown")
}
