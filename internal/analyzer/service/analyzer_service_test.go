package service

import (
	"testing"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionsFlow(pcr float64) *scoring.OptionsFlow {
	return &scoring.OptionsFlow{PutCallRatio: pcr}
}

func closeBars(closes []float64) []technicals.Bar {
	bars := make([]technicals.Bar, len(closes))
	for i, c := range closes {
		bars[i] = technicals.Bar{Close: c, Volume: 1e6}
	}
	return bars
}

func TestTrailingQuarterReturn(t *testing.T) {
	t.Run("full quarter lag", func(t *testing.T) {
		closes := make([]float64, 100)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		// last close 199, close 63 bars earlier is 136.
		want := 199.0/136.0 - 1
		assert.InDelta(t, want, trailingQuarterReturn(closeBars(closes)), 1e-9)
	})

	t.Run("short series falls back to full span", func(t *testing.T) {
		got := trailingQuarterReturn(closeBars([]float64{100, 110, 121}))
		assert.InDelta(t, 0.21, got, 1e-9)
	})

	t.Run("degenerate inputs", func(t *testing.T) {
		assert.Equal(t, 0.0, trailingQuarterReturn(nil))
		assert.Equal(t, 0.0, trailingQuarterReturn(closeBars([]float64{100})))
		assert.Equal(t, 0.0, trailingQuarterReturn(closeBars([]float64{0, 110})))
	})
}

func TestDecodeAnalyzerPayload(t *testing.T) {
	streamData, err := decodeAnalyzerPayload(map[string]interface{}{"payload": `{"symbol":"AAPL"}`})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", streamData.Symbol)

	_, err = decodeAnalyzerPayload(map[string]interface{}{})
	assert.Error(t, err)
}

func TestBuildTechContext(t *testing.T) {
	sig := technicals.Snapshot{
		RSI:    61.2,
		ADX:    28.4,
		S1:     technicals.Float{Value: 95.5, Valid: true},
		R1:     technicals.Float{Value: 104.5, Valid: true},
		SMA50:  98.7,
		SMA200: 90.1,
	}
	info := &dto.CompanyInfo{}
	info.Recommendation = "Buy"

	t.Run("with options flow", func(t *testing.T) {
		tech := buildTechContext(100.0, 8.5, sig, info, optionsFlow(1.25))
		assert.Equal(t, "1.25", tech.PutCall)
		assert.Equal(t, "95.50", tech.S1)
		assert.Equal(t, "104.50", tech.R1)
		assert.Equal(t, "Buy", tech.Consensus)
		assert.InDelta(t, 8.5, tech.Upside, 1e-9)
	})

	t.Run("missing options and pivots", func(t *testing.T) {
		bare := technicals.Snapshot{RSI: 50}
		tech := buildTechContext(100.0, 0, bare, info, nil)
		assert.Equal(t, "N/A", tech.PutCall)
		assert.Equal(t, "N/A", tech.S1)
		assert.Equal(t, "N/A", tech.R1)
	})
}

func TestSectorRotationClassification(t *testing.T) {
	// The thresholds are on the sector-vs-market return spread; exercise them
	// through the pure return helper the service classifies with.
	sector := trailingQuarterReturn(closeBars([]float64{100, 110}))
	market := trailingQuarterReturn(closeBars([]float64{100, 105}))
	assert.Greater(t, sector-market, 0.02)

	sector = trailingQuarterReturn(closeBars([]float64{100, 101}))
	market = trailingQuarterReturn(closeBars([]float64{100, 100.5}))
	diff := sector - market
	assert.Greater(t, diff, 0.0)
	assert.Less(t, diff, 0.02)
}
