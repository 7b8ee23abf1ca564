package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"
)

func f64(v float64) *float64 { return &v }

func testBars(closes []float64) []technicals.Bar {
	bars := make([]technicals.Bar, len(closes))
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = technicals.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, c) + 0.5,
			Low:    math.Min(open, c) - 0.5,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// declineThenRecover builds the base fixture: 60 bars selling off from 150
// to 91, then a sawtooth recovery (+2, -1) that crosses back over the 50-bar
// average in the mid-80s bar range. tail rewrites bars from index 100 on.
func declineThenRecover(n int, tail func(prev float64, step int) float64) []float64 {
	closes := make([]float64, n)
	for i := 0; i < 60 && i < n; i++ {
		closes[i] = 150 - float64(i)
	}
	for i := 60; i < n; i++ {
		k := i - 60
		if i >= 100 && tail != nil {
			closes[i] = tail(closes[i-1], i-100)
			continue
		}
		if k%2 == 0 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	return closes
}

// convictionFundamentals scores high enough that entries hinge purely on the
// price-versus-trend and RSI gates.
func convictionFundamentals() scoring.Fundamentals {
	return scoring.Fundamentals{
		Symbol:               "TEST",
		InstitutionsPercent:  f64(0.70),
		ShortRatio:           f64(6.0),
		InsiderBuyingCluster: true,
		PEGRatio:             f64(0.5),
		FCFYield:             f64(0.08),
		SectorRotation:       "Leading",
		EarningsSurprises: []scoring.EarningsSurprise{
			{Actual: 1.1, Estimate: 1.0},
			{Actual: 1.2, Estimate: 1.1},
			{Actual: 1.3, Estimate: 1.2},
			{Actual: 1.4, Estimate: 1.3},
		},
	}
}

func TestRunRejectsShortHistory(t *testing.T) {
	closes := make([]float64, 49)
	for i := range closes {
		closes[i] = 100
	}
	res, err := Run("TEST", testBars(closes), scoring.Fundamentals{}, Options{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunFlatSeriesNeverTrades(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100
	}
	res, err := Run("TEST", testBars(closes), scoring.Fundamentals{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.TradeCount)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.TotalReturn)
	assert.Zero(t, res.BuyHoldReturn)
	assert.Zero(t, res.WinRate)
	assert.Zero(t, res.PerformanceVsMarket)
}

func TestRunEntersOnRecoveryAndForceClosesOpenPosition(t *testing.T) {
	closes := declineThenRecover(120, nil)
	bars := testBars(closes)

	res, err := Run("TEST", bars, convictionFundamentals(), Options{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ReasonOpen, trade.ExitReason)
	assert.True(t, trade.EntryDate.After(bars[60].Date),
		"entry belongs to the recovery leg, not the decline")
	assert.Equal(t, bars[len(bars)-1].Date, trade.ExitDate)
	assert.Equal(t, bars[len(bars)-1].Close, trade.ExitPrice)
	assert.Positive(t, trade.Return)
	assert.Positive(t, res.TotalReturn)
	assert.Equal(t, 100.0, res.WinRate)
}

func TestRunStopLossExit(t *testing.T) {
	// Recovery entry followed by a relentless -2%/day slide. The composite
	// score never collapses below 40, so the stop is the only exit left.
	closes := declineThenRecover(120, func(prev float64, step int) float64 {
		return prev * 0.98
	})
	bars := testBars(closes)

	res, err := Run("TEST", bars, convictionFundamentals(), Options{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ReasonStopLoss, trade.ExitReason)
	assert.Less(t, trade.ExitPrice, trade.EntryPrice*0.90)
	assert.InDelta(t, -0.11, trade.Return, 0.02)
	assert.Zero(t, res.WinRate)
}

func TestRunParabolicExit(t *testing.T) {
	// Recovery entry, then a +5%/day melt-up pins RSI above 80. The RSI gate
	// also blocks re-entry for the rest of the surge.
	closes := declineThenRecover(120, func(prev float64, step int) float64 {
		return prev * 1.05
	})
	bars := testBars(closes)

	res, err := Run("TEST", bars, convictionFundamentals(), Options{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, ReasonParabolic, trade.ExitReason)
	assert.Positive(t, trade.Return)
	assert.True(t, trade.ExitDate.After(bars[100].Date))
}

func TestRunTotalReturnCompoundsTrades(t *testing.T) {
	for name, tail := range map[string]func(float64, int) float64{
		"stop loss": func(prev float64, _ int) float64 { return prev * 0.98 },
		"melt up":   func(prev float64, _ int) float64 { return prev * 1.05 },
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Run("TEST", testBars(declineThenRecover(120, tail)), convictionFundamentals(), Options{})
			require.NoError(t, err)
			require.NotEmpty(t, res.Trades)

			value := 1.0
			for _, tr := range res.Trades {
				value *= 1 + tr.Return
			}
			assert.InDelta(t, (value-1)*100, res.TotalReturn, 0.011)
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	bars := testBars(declineThenRecover(120, func(prev float64, _ int) float64 {
		return prev * 1.05
	}))
	f := convictionFundamentals()

	r1, err := Run("TEST", bars, f, Options{})
	require.NoError(t, err)
	r2, err := Run("TEST", bars, f, Options{})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestRunZeroSentimentDefaultsToNeutral(t *testing.T) {
	bars := testBars(declineThenRecover(120, nil))
	f := convictionFundamentals()

	implicit, err := Run("TEST", bars, f, Options{})
	require.NoError(t, err)
	explicit, err := Run("TEST", bars, f, Options{Sentiment: 50})
	require.NoError(t, err)
	assert.Equal(t, explicit, implicit)
}

func TestRunLongSeriesUsesExtendedWarmup(t *testing.T) {
	// A 300-bar series: a strong first half that a 30-bar warm-up would have
	// traded, then a slow bleed. Decisions only start at bar 200, where price
	// sits under the 50-bar average the whole way, so nothing trades.
	closes := make([]float64, 300)
	closes[0] = 100
	for i := 1; i < 150; i++ {
		if i%2 == 0 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	for i := 150; i < 300; i++ {
		closes[i] = closes[i-1] - 0.2
	}

	res, err := Run("TEST", testBars(closes), convictionFundamentals(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TradeCount)
	assert.Empty(t, res.Trades)
}

func TestRunBuyHoldBaseline(t *testing.T) {
	closes := declineThenRecover(120, nil)
	bars := testBars(closes)

	res, err := Run("TEST", bars, convictionFundamentals(), Options{})
	require.NoError(t, err)

	want := (closes[119] - closes[30]) / closes[30] * 100
	assert.InDelta(t, want, res.BuyHoldReturn, 0.011)
	assert.InDelta(t, res.TotalReturn-res.BuyHoldReturn, res.PerformanceVsMarket, 0.03)
}
