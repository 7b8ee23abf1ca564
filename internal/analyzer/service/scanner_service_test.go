package service

import (
	"testing"

	"golang-ticker-analyzer/internal/technicals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func volumeBars(volumes []float64) []technicals.Bar {
	bars := make([]technicals.Bar, len(volumes))
	for i, v := range volumes {
		bars[i] = technicals.Bar{Close: 100, Volume: v}
	}
	return bars
}

func TestRelativeVolume(t *testing.T) {
	t.Run("flat volume is 1x", func(t *testing.T) {
		vols := make([]float64, 30)
		for i := range vols {
			vols[i] = 1e6
		}
		assert.InDelta(t, 1.0, relativeVolume(volumeBars(vols)), 1e-9)
	})

	t.Run("spike on last bar", func(t *testing.T) {
		vols := make([]float64, 30)
		for i := range vols {
			vols[i] = 1e6
		}
		vols[29] = 3e6
		assert.InDelta(t, 3.0, relativeVolume(volumeBars(vols)), 1e-9)
	})

	t.Run("short history shrinks the window", func(t *testing.T) {
		// 5 bars: window is the 4 preceding bars, avg 1e6.
		vols := []float64{1e6, 1e6, 1e6, 1e6, 2e6}
		assert.InDelta(t, 2.0, relativeVolume(volumeBars(vols)), 1e-9)
	})

	t.Run("degenerate inputs", func(t *testing.T) {
		assert.Equal(t, 1.0, relativeVolume(nil))
		assert.Equal(t, 1.0, relativeVolume(volumeBars([]float64{5e5})))
		assert.Equal(t, 1.0, relativeVolume(volumeBars([]float64{0, 0, 0})))
	})
}

func TestDecodeScannerPayload(t *testing.T) {
	streamData, err := decodeScannerPayload(map[string]interface{}{"payload": `{"symbol":"NVDA"}`})
	require.NoError(t, err)
	assert.Equal(t, "NVDA", streamData.Symbol)

	_, err = decodeScannerPayload(map[string]interface{}{"other": "x"})
	assert.Error(t, err)

	_, err = decodeScannerPayload(map[string]interface{}{"payload": "{broken"})
	assert.Error(t, err)
}
