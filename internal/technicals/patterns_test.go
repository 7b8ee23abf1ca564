package technicals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func patternBar(i int, high, low, close float64) Bar {
	return Bar{
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:   close,
		High:   high,
		Low:    low,
		Close:  close,
		Volume: 1_000_000,
	}
}

func TestDetectDoubleBottom(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		window[i] = patternBar(i, 101, 100, 100.5)
	}
	// Two troughs 20 bars apart within 3% of each other, a peak between
	// them, and a breakout close above that peak.
	window[20] = patternBar(20, 101, 90, 91)
	window[40] = patternBar(40, 101, 90.5, 91.5)
	window[30] = patternBar(30, 105, 100, 104)
	window[59] = patternBar(59, 107, 105, 106)

	assert.True(t, detectDoubleBottom(window))
}

func TestDetectDoubleBottomRejectsUnequalDepths(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		window[i] = patternBar(i, 101, 100, 100.5)
	}
	window[20] = patternBar(20, 101, 90, 91)
	window[40] = patternBar(40, 101, 80, 81) // second bottom 11% deeper
	window[59] = patternBar(59, 107, 105, 106)

	assert.False(t, detectDoubleBottom(window))
}

func TestDetectDoubleBottomRejectsWithoutBreakout(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		window[i] = patternBar(i, 101, 100, 100.5)
	}
	window[20] = patternBar(20, 101, 90, 91)
	window[40] = patternBar(40, 101, 90.5, 91.5)
	window[30] = patternBar(30, 110, 100, 108) // peak the close never clears

	assert.False(t, detectDoubleBottom(window))
}

func TestDetectDoubleBottomFlatWindow(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		window[i] = patternBar(i, 101, 100, 100.5)
	}
	assert.False(t, detectDoubleBottom(window))
}

func TestDetectDoubleBottomShortWindow(t *testing.T) {
	assert.False(t, detectDoubleBottom(make([]Bar, patternWindow-1)))
}

func TestDetectCupHandle(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		switch {
		case i < 20: // left rim
			window[i] = patternBar(i, 101, 99, 100)
		case i < 40: // base
			window[i] = patternBar(i, 81, 79, 80)
		default: // recovery toward the rim
			c := 80 + float64(i-39)
			window[i] = patternBar(i, c+1, c-1, c)
		}
	}
	assert.True(t, detectCupHandle(window))
}

func TestDetectCupHandleRejectsShallowBase(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		switch {
		case i < 20:
			window[i] = patternBar(i, 101, 99, 100)
		case i < 40: // only ~5% deep
			window[i] = patternBar(i, 96, 94, 95)
		default:
			c := 95 + float64(i-39)*0.25
			window[i] = patternBar(i, c+1, c-1, c)
		}
	}
	assert.False(t, detectCupHandle(window))
}

func TestDetectCupHandleRejectsUptrend(t *testing.T) {
	window := make([]Bar, patternWindow)
	for i := range window {
		c := 100 + float64(i)
		window[i] = patternBar(i, c+1, c-1, c)
	}
	assert.False(t, detectCupHandle(window))
}
