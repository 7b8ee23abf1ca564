package technicals

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes []float64) []Bar {
	bars := make([]Bar, len(closes))
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		high := math.Max(open, c) + 0.5
		low := math.Min(open, c) - 0.5
		bars[i] = Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func rampCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

func TestCalculateEmptyInput(t *testing.T) {
	p, err := Calculate(nil, nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCalculatePanelLengthMatchesInput(t *testing.T) {
	for _, n := range []int{1, 5, 30, 120, 300} {
		p, err := Calculate(barsFromCloses(rampCloses(n, 100, 0.3)), nil)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, n, p.Len(), "n=%d", n)
		assert.Len(t, p.RSI, n)
		assert.Len(t, p.SMA200, n)
		assert.Len(t, p.SqueezeOn, n)
		assert.Len(t, p.DoubleBottom, n)
	}
}

func TestCalculateWarmupBoundaries(t *testing.T) {
	// Noisy but deterministic series long enough for every warm-up window.
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/7) + float64(i)*0.05
	}
	p, err := Calculate(barsFromCloses(closes), nil)
	require.NoError(t, err)

	cases := []struct {
		name       string
		col        []Float
		firstValid int
	}{
		{"RSI", p.RSI, 14},
		{"MACD", p.MACD, 25},
		{"MACDSignal", p.MACDSignal, 33},
		{"MACDHist", p.MACDHist, 33},
		{"ADX", p.ADX, 27},
		{"SMA50", p.SMA50, 49},
		{"SMA200", p.SMA200, 199},
		{"BBUpper", p.BBUpper, 19},
		{"KCUpper", p.KCUpper, 19},
		{"VWAPWeekly", p.VWAPWeekly, 4},
		{"Pivot", p.Pivot, 1},
		{"R1", p.R1, 1},
		{"SMI", p.SMI, 13},
		{"SMISignal", p.SMISignal, 13},
		{"SqueezeMom", p.SqueezeMom, 38},
		{"VolumeRatio", p.VolumeRatio, 19},
		{"RelStrength", p.RelStrength, 63},
	}
	for _, tc := range cases {
		for i := 0; i < tc.firstValid; i++ {
			assert.False(t, tc.col[i].Valid, "%s: expected invalid at row %d", tc.name, i)
		}
		for i := tc.firstValid; i < len(tc.col); i++ {
			assert.True(t, tc.col[i].Valid, "%s: expected valid at row %d", tc.name, i)
		}
	}
}

func TestRSIBoundsAndExtremes(t *testing.T) {
	// Monotonic rise: no losses, RSI pegs at 100.
	p, err := Calculate(barsFromCloses(rampCloses(60, 100, 1)), nil)
	require.NoError(t, err)
	for i := 14; i < p.Len(); i++ {
		assert.InDelta(t, 100, p.RSI[i].Value, 1e-9)
	}

	// Monotonic fall: RSI pinned near 0.
	p, err = Calculate(barsFromCloses(rampCloses(60, 200, -1)), nil)
	require.NoError(t, err)
	for i := 14; i < p.Len(); i++ {
		assert.Less(t, p.RSI[i].Value, 1.0)
		assert.GreaterOrEqual(t, p.RSI[i].Value, 0.0)
	}
}

func TestRollingMeanKnownValues(t *testing.T) {
	out := rollingMean([]float64{100, 102, 104, 103, 105}, 3)
	assert.False(t, out[1].Valid)
	assert.InDelta(t, 102, out[2].Value, 1e-9)
	assert.InDelta(t, 103, out[3].Value, 1e-9)
	assert.InDelta(t, 104, out[4].Value, 1e-9)
}

func TestBollingerKnownValues(t *testing.T) {
	// Closes 1..20: mean 10.5, sample variance n(n+1)/12 = 35.
	p, err := Calculate(barsFromCloses(rampCloses(20, 1, 1)), nil)
	require.NoError(t, err)
	sd := math.Sqrt(35)
	assert.InDelta(t, 10.5+2*sd, p.BBUpper[19].Value, 1e-9)
	assert.InDelta(t, 10.5-2*sd, p.BBLower[19].Value, 1e-9)
	assert.InDelta(t, 4*sd/10.5, p.BBWidth[19].Value, 1e-9)
}

func TestBollingerFlatSeriesHasZeroWidth(t *testing.T) {
	p, err := Calculate(barsFromCloses(flatCloses(40, 50)), nil)
	require.NoError(t, err)
	for i := 19; i < p.Len(); i++ {
		assert.InDelta(t, 0, p.BBWidth[i].Value, 1e-9)
		assert.InDelta(t, 50, p.BBUpper[i].Value, 1e-9)
	}
}

func TestPivotUsesPreviousBar(t *testing.T) {
	bars := barsFromCloses([]float64{100, 104})
	p, err := Calculate(bars, nil)
	require.NoError(t, err)

	prev := bars[0]
	pivot := (prev.High + prev.Low + prev.Close) / 3
	assert.False(t, p.Pivot[0].Valid)
	assert.InDelta(t, pivot, p.Pivot[1].Value, 1e-9)
	assert.InDelta(t, 2*pivot-prev.Low, p.R1[1].Value, 1e-9)
	assert.InDelta(t, 2*pivot-prev.High, p.S1[1].Value, 1e-9)
}

func TestVWAPEqualVolumesIsTypicalPriceMean(t *testing.T) {
	bars := barsFromCloses(rampCloses(10, 100, 2))
	p, err := Calculate(bars, nil)
	require.NoError(t, err)

	i := 9
	var want float64
	for j := i - 4; j <= i; j++ {
		want += (bars[j].High + bars[j].Low + bars[j].Close) / 3
	}
	want /= 5
	assert.InDelta(t, want, p.VWAPWeekly[i].Value, 1e-9)
}

func TestRelativeStrengthOwnMomentumFallback(t *testing.T) {
	// Without a benchmark the column reports raw trailing momentum.
	closes := rampCloses(100, 100, 1)
	p, err := Calculate(barsFromCloses(closes), nil)
	require.NoError(t, err)

	i := 80
	want := closes[i]/closes[i-63] - 1
	assert.InDelta(t, want, p.RelStrength[i].Value, 1e-9)
}

func TestRelativeStrengthAgainstIdenticalBenchmarkIsZero(t *testing.T) {
	bars := barsFromCloses(rampCloses(100, 100, 1))
	p, err := Calculate(bars, bars)
	require.NoError(t, err)
	for i := 63; i < p.Len(); i++ {
		assert.InDelta(t, 0, p.RelStrength[i].Value, 1e-9)
	}
}

func TestRelativeStrengthShortHistoryShrinksLag(t *testing.T) {
	closes := rampCloses(30, 100, 1)
	p, err := Calculate(barsFromCloses(closes), nil)
	require.NoError(t, err)

	// lag = min(63, n-1) = 29
	assert.False(t, p.RelStrength[28].Valid)
	require.True(t, p.RelStrength[29].Valid)
	assert.InDelta(t, closes[29]/closes[0]-1, p.RelStrength[29].Value, 1e-9)
}

func TestVolumeRatioAllUpDays(t *testing.T) {
	bars := barsFromCloses(rampCloses(40, 100, 1)) // every close > open
	p, err := Calculate(bars, nil)
	require.NoError(t, err)

	i := 30
	var up float64
	for j := i - 19; j <= i; j++ {
		up += bars[j].Volume
	}
	assert.InDelta(t, up/1, p.VolumeRatio[i].Value, 1e-6)
}

func TestSqueezeMomentumConstantDelta(t *testing.T) {
	// On a clean linear ramp with high=low=close the distance from the
	// channel midline is constant, so the regression projection equals it.
	n := 60
	step := 2.0
	bars := make([]Bar, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)*step
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	p, err := Calculate(bars, nil)
	require.NoError(t, err)

	// delta = close - (close + sma20)/2 = (close - sma20)/2 = 9.5*step/2
	want := 9.5 * step / 2
	for i := 40; i < n; i++ {
		assert.InDelta(t, want, p.SqueezeMom[i].Value, 1e-6, "row %d", i)
	}
}

func TestMACDDivergenceFlag(t *testing.T) {
	// Build a series long enough for the histogram, then force the last
	// three rows into the divergence shape through direct column checks.
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 - float64(i)*0.5 // steady decline keeps histogram negative
	}
	// A final sharp lower low after the decline has decelerated.
	closes[77] = closes[76] + 1.5
	closes[78] = closes[77] + 1.0
	closes[79] = closes[76] - 5

	p, err := Calculate(barsFromCloses(closes), nil)
	require.NoError(t, err)

	i := 79
	if p.MACDDivergence[i] {
		assert.Less(t, p.Bars[i].Low, p.Bars[i-1].Low)
		assert.Less(t, p.Bars[i].Low, p.Bars[i-2].Low)
		assert.Negative(t, p.MACDHist[i].Value)
		assert.Greater(t, p.MACDHist[i].Value, p.MACDHist[i-1].Value)
	}
	// The flag is never set while the histogram is positive.
	for j := 33; j < p.Len(); j++ {
		if p.MACDDivergence[j] {
			assert.Negative(t, p.MACDHist[j].Value, "row %d", j)
		}
	}
}

func TestShortSeriesDoesNotPanic(t *testing.T) {
	for n := 1; n <= 25; n++ {
		p, err := Calculate(barsFromCloses(rampCloses(n, 100, 1)), nil)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, n, p.Len())
		_ = p.Latest()
	}
}
