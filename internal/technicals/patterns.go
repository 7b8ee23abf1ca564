package technicals

// Pattern detectors operate on a trailing 60-bar window. Both are coarse
// heuristics: they trade precision for not missing the textbook shapes.

const (
	doubleBottomMinGap   = 10
	doubleBottomDepthTol = 0.03
	cupHighProximity     = 0.10
	cupMinDepth          = 0.15
)

// detectDoubleBottom looks for two local minima at least doubleBottomMinGap
// bars apart with depths within 3% of each other, confirmed by the current
// close breaking above the intervening peak.
func detectDoubleBottom(window []Bar) bool {
	n := len(window)
	if n < patternWindow {
		return false
	}

	// Local minimum: lower than the two neighbors on each side.
	var minima []int
	for i := 2; i < n-2; i++ {
		l := window[i].Low
		if l < window[i-1].Low && l < window[i-2].Low &&
			l < window[i+1].Low && l < window[i+2].Low {
			minima = append(minima, i)
		}
	}

	current := window[n-1].Close
	for a := 0; a < len(minima); a++ {
		for b := a + 1; b < len(minima); b++ {
			i, j := minima[a], minima[b]
			if j-i < doubleBottomMinGap {
				continue
			}
			li, lj := window[i].Low, window[j].Low
			lo := li
			if lj < lo {
				lo = lj
			}
			if lo <= 0 {
				continue
			}
			diff := li - lj
			if diff < 0 {
				diff = -diff
			}
			if diff/lo > doubleBottomDepthTol {
				continue
			}
			peak := window[i].High
			for k := i + 1; k <= j; k++ {
				if window[k].High > peak {
					peak = window[k].High
				}
			}
			if current > peak {
				return true
			}
		}
	}
	return false
}

// detectCupHandle checks that the close sits within 10% of the window high,
// that a trough at least 15% below the high exists somewhere in the window,
// and that mean closes form a high-low-high split across the window thirds.
func detectCupHandle(window []Bar) bool {
	n := len(window)
	if n < patternWindow {
		return false
	}

	high := window[0].High
	trough := window[0].Low
	for _, b := range window {
		if b.High > high {
			high = b.High
		}
		if b.Low < trough {
			trough = b.Low
		}
	}
	if high <= 0 {
		return false
	}

	current := window[n-1].Close
	if current < (1-cupHighProximity)*high {
		return false
	}
	if trough > (1-cupMinDepth)*high {
		return false
	}

	third := n / 3
	first := meanClose(window[:third])
	middle := meanClose(window[third : 2*third])
	last := meanClose(window[2*third:])
	return first > middle && middle < last
}

func meanClose(bars []Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.Close
	}
	return sum / float64(len(bars))
}
