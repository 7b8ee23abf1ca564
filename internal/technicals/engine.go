// Package technicals converts raw OHLCV history into the indicator panel and
// signal snapshots the scoring and backtest layers consume. Every cell at row
// i depends only on rows <= i, so a panel computed over the full history can
// be read per-bar without look-ahead.
package technicals

import (
	"errors"
	"math"
)

// ErrNoData is returned when an empty bar sequence is supplied.
var ErrNoData = errors.New("technicals: no bars supplied")

const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignalSpan = 9
	adxPeriod      = 14
	bbPeriod       = 20
	bbDev          = 2.0
	kcPeriod       = 20
	kcMult         = 1.5
	sqzPeriod      = 20
	smiQPeriod     = 14
	smiRPeriod     = 9
	smiSignalSpan  = 10
	vwapWindow     = 5
	volRatioWindow = 20
	relStrengthLag = 63
	patternWindow  = 60
)

// Panel is the per-bar indicator table, aligned 1:1 with the input bars.
// It is built once by Calculate and never mutated afterwards.
type Panel struct {
	Bars []Bar

	RSI        []Float
	MACD       []Float
	MACDSignal []Float
	MACDHist   []Float
	ADX        []Float
	SMA50      []Float
	SMA200     []Float

	BBUpper []Float
	BBLower []Float
	BBWidth []Float
	KCUpper []Float
	KCLower []Float

	VWAPWeekly []Float
	Pivot      []Float
	R1         []Float
	S1         []Float

	RelStrength []Float
	SqueezeOn   []bool
	SqueezeMom  []Float
	SMI         []Float
	SMISignal   []Float
	VolumeRatio []Float

	MACDDivergence []bool
	DoubleBottom   []bool
	CupHandle      []bool
}

// Len returns the number of rows in the panel.
func (p *Panel) Len() int { return len(p.Bars) }

// Calculate builds the full indicator panel for a chronologically ordered bar
// sequence. benchmark, when non-nil, is a sector/index comparator used for
// relative strength; without it relative strength falls back to the series'
// own momentum. The returned panel always has the same length as bars;
// indicators whose warm-up exceeds the available history simply stay invalid
// for those leading rows.
func Calculate(bars []Bar, benchmark []Bar) (*Panel, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	p := &Panel{Bars: bars}

	p.RSI = wilderRSI(closes, rsiPeriod)
	p.MACD, p.MACDSignal, p.MACDHist = macdColumns(closes)
	p.ADX = wilderADX(highs, lows, closes, adxPeriod)
	p.SMA50 = rollingMean(closes, 50)
	p.SMA200 = rollingMean(closes, 200)

	basis := rollingMean(closes, bbPeriod)
	dev := rollingStd(closes, bbPeriod)
	p.BBUpper = make([]Float, n)
	p.BBLower = make([]Float, n)
	p.BBWidth = make([]Float, n)
	for i := 0; i < n; i++ {
		if !basis[i].Valid || !dev[i].Valid {
			continue
		}
		upper := basis[i].Value + bbDev*dev[i].Value
		lower := basis[i].Value - bbDev*dev[i].Value
		p.BBUpper[i] = valid(upper)
		p.BBLower[i] = valid(lower)
		if basis[i].Value != 0 {
			p.BBWidth[i] = valid((upper - lower) / basis[i].Value)
		}
	}

	atr := rollingMean(trueRanges(highs, lows, closes), kcPeriod)
	p.KCUpper = make([]Float, n)
	p.KCLower = make([]Float, n)
	for i := 0; i < n; i++ {
		if !basis[i].Valid || !atr[i].Valid {
			continue
		}
		p.KCUpper[i] = valid(basis[i].Value + kcMult*atr[i].Value)
		p.KCLower[i] = valid(basis[i].Value - kcMult*atr[i].Value)
	}

	// Squeeze is on when the Bollinger band sits fully inside the Keltner
	// channel: compressed volatility that historically precedes breakouts.
	p.SqueezeOn = make([]bool, n)
	for i := 0; i < n; i++ {
		if p.BBUpper[i].Valid && p.KCUpper[i].Valid {
			p.SqueezeOn[i] = p.BBUpper[i].Value < p.KCUpper[i].Value &&
				p.BBLower[i].Value > p.KCLower[i].Value
		}
	}

	p.SqueezeMom = squeezeMomentum(highs, lows, closes, basis)
	p.SMI, p.SMISignal = smiColumns(highs, lows, closes)
	p.VWAPWeekly = rollingVWAP(bars, vwapWindow)
	p.Pivot, p.R1, p.S1 = pivotColumns(bars)
	p.RelStrength = relativeStrength(closes, benchmark)
	p.VolumeRatio = upDownVolumeRatio(bars, volRatioWindow)
	p.MACDDivergence = macdDivergence(lows, p.MACDHist)

	p.DoubleBottom = make([]bool, n)
	p.CupHandle = make([]bool, n)
	for i := patternWindow - 1; i < n; i++ {
		window := bars[i-patternWindow+1 : i+1]
		p.DoubleBottom[i] = detectDoubleBottom(window)
		p.CupHandle[i] = detectCupHandle(window)
	}

	return p, nil
}

// wilderRSI computes the RSI using Wilder's smoothing, seeded with a simple
// average over the first period deltas. First valid cell is at index period.
func wilderRSI(closes []float64, period int) []Float {
	n := len(closes)
	out := make([]Float, n)
	if n <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = valid(rsiFromAverages(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = valid(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func macdColumns(closes []float64) (macd, signal, hist []Float) {
	n := len(closes)
	fast := smaSeededEMA(closes, macdFast)
	slow := smaSeededEMA(closes, macdSlow)

	macd = make([]Float, n)
	for i := 0; i < n; i++ {
		if fast[i].Valid && slow[i].Valid {
			macd[i] = valid(fast[i].Value - slow[i].Value)
		}
	}

	signal = smaSeededEMAFloat(macd, macdSignalSpan)
	hist = make([]Float, n)
	for i := 0; i < n; i++ {
		if macd[i].Valid && signal[i].Valid {
			hist[i] = valid(macd[i].Value - signal[i].Value)
		}
	}
	return macd, signal, hist
}

// wilderADX derives trend strength from directional movement. DI values are
// available from index period, DX from the same row, and the ADX itself from
// index 2*period-1 (the first DX average).
func wilderADX(highs, lows, closes []float64, period int) []Float {
	n := len(highs)
	out := make([]Float, n)
	if n < 2*period {
		return out
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
		tr[i] = trueRange(highs[i], lows[i], closes[i-1])
	}

	var trS, plusS, minusS float64
	for i := 1; i <= period; i++ {
		trS += tr[i]
		plusS += plusDM[i]
		minusS += minusDM[i]
	}

	dx := make([]float64, n)
	dx[period] = dxValue(plusS, minusS, trS)
	for i := period + 1; i < n; i++ {
		trS = trS - trS/float64(period) + tr[i]
		plusS = plusS - plusS/float64(period) + plusDM[i]
		minusS = minusS - minusS/float64(period) + minusDM[i]
		dx[i] = dxValue(plusS, minusS, trS)
	}

	var adx float64
	for i := period; i < 2*period; i++ {
		adx += dx[i]
	}
	adx /= float64(period)
	out[2*period-1] = valid(adx)
	for i := 2 * period; i < n; i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
		out[i] = valid(adx)
	}
	return out
}

func dxValue(plusS, minusS, trS float64) float64 {
	if trS == 0 {
		return 0
	}
	plusDI := 100 * plusS / trS
	minusDI := 100 * minusS / trS
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}

// squeezeMomentum projects a linear regression of the close's distance from
// the channel midline to the last point of each rolling window. The window is
// recomputed per bar, not maintained incrementally.
func squeezeMomentum(highs, lows, closes []float64, basis []Float) []Float {
	n := len(closes)
	delta := make([]Float, n)
	for i := 0; i < n; i++ {
		if !basis[i].Valid {
			continue
		}
		avgHL := (highs[i] + lows[i]) / 2
		avgVal := (avgHL + basis[i].Value) / 2
		delta[i] = valid(closes[i] - avgVal)
	}

	out := make([]Float, n)
	window := make([]float64, 0, sqzPeriod)
	for i := sqzPeriod - 1; i < n; i++ {
		window = window[:0]
		ok := true
		for j := i - sqzPeriod + 1; j <= i; j++ {
			if !delta[j].Valid {
				ok = false
				break
			}
			window = append(window, delta[j].Value)
		}
		if ok {
			out[i] = valid(linregLastPoint(window))
		}
	}
	return out
}

// linregLastPoint fits y = slope*x + intercept over x = 0..n-1 by least
// squares and evaluates the fit at the last x.
func linregLastPoint(y []float64) float64 {
	n := float64(len(y))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	return slope*(n-1) + intercept
}

// smiColumns computes the Stochastic Momentum Index: the double-smoothed
// distance of the close from the midpoint of the q-period high/low range,
// scaled by half the double-smoothed range. A small epsilon keeps the
// denominator away from zero on flat ranges.
func smiColumns(highs, lows, closes []float64) (smi, signal []Float) {
	n := len(closes)
	hh := rollingMax(highs, smiQPeriod)
	ll := rollingMin(lows, smiQPeriod)

	diff := make([]Float, n)
	rng := make([]Float, n)
	for i := 0; i < n; i++ {
		if !hh[i].Valid || !ll[i].Valid {
			continue
		}
		mid := (hh[i].Value + ll[i].Value) / 2
		diff[i] = valid(closes[i] - mid)
		rng[i] = valid(hh[i].Value - ll[i].Value)
	}

	num := ewma(ewma(diff, smiRPeriod), smiRPeriod)
	den := ewma(ewma(rng, smiRPeriod), smiRPeriod)

	smi = make([]Float, n)
	for i := 0; i < n; i++ {
		if num[i].Valid && den[i].Valid {
			smi[i] = valid(100 * num[i].Value / (0.5*den[i].Value + 0.0001))
		}
	}
	signal = ewma(smi, smiSignalSpan)
	return smi, signal
}

// rollingVWAP is the volume-weighted average of the typical price over a
// short window. A zero-volume window degrades to the plain typical-price
// mean instead of dividing by zero.
func rollingVWAP(bars []Bar, window int) []Float {
	n := len(bars)
	out := make([]Float, n)
	for i := window - 1; i < n; i++ {
		var pv, vol, tp float64
		for j := i - window + 1; j <= i; j++ {
			typical := (bars[j].High + bars[j].Low + bars[j].Close) / 3
			pv += typical * bars[j].Volume
			vol += bars[j].Volume
			tp += typical
		}
		if vol > 0 {
			out[i] = valid(pv / vol)
		} else {
			out[i] = valid(tp / float64(window))
		}
	}
	return out
}

// pivotColumns computes classic floor-trader pivots from the previous bar so
// the current bar's own range never leaks into its support/resistance levels.
func pivotColumns(bars []Bar) (pivot, r1, s1 []Float) {
	n := len(bars)
	pivot = make([]Float, n)
	r1 = make([]Float, n)
	s1 = make([]Float, n)
	for i := 1; i < n; i++ {
		prev := bars[i-1]
		p := (prev.High + prev.Low + prev.Close) / 3
		pivot[i] = valid(p)
		r1[i] = valid(2*p - prev.Low)
		s1[i] = valid(2*p - prev.High)
	}
	return pivot, r1, s1
}

// relativeStrength compares trailing momentum against the benchmark over a
// quarter (63 bars), shrinking the lag when history is short. Without a
// benchmark it reports raw own-momentum.
func relativeStrength(closes []float64, benchmark []Bar) []Float {
	n := len(closes)
	out := make([]Float, n)
	lag := relStrengthLag
	if n-1 < lag {
		lag = n - 1
	}
	if lag < 1 {
		return out
	}

	var benchCloses []float64
	if len(benchmark) > 1 {
		benchCloses = make([]float64, len(benchmark))
		for i, b := range benchmark {
			benchCloses[i] = b.Close
		}
		if len(benchCloses)-1 < lag {
			lag = len(benchCloses) - 1
		}
	}

	for i := lag; i < n; i++ {
		own := closes[i]/closes[i-lag] - 1
		if benchCloses == nil {
			out[i] = valid(own)
			continue
		}
		// Align the two series on their trailing ends.
		bi := len(benchCloses) - n + i
		if bi-lag < 0 || bi >= len(benchCloses) {
			out[i] = valid(own)
			continue
		}
		bench := benchCloses[bi]/benchCloses[bi-lag] - 1
		out[i] = valid(own - bench)
	}
	return out
}

// upDownVolumeRatio is the rolling sum of up-day volume over down-day volume.
// The +1 in the denominator guards the all-up-days case.
func upDownVolumeRatio(bars []Bar, window int) []Float {
	n := len(bars)
	out := make([]Float, n)
	for i := window - 1; i < n; i++ {
		var up, down float64
		for j := i - window + 1; j <= i; j++ {
			if bars[j].Close > bars[j].Open {
				up += bars[j].Volume
			} else {
				down += bars[j].Volume
			}
		}
		out[i] = valid(up / (down + 1))
	}
	return out
}

// macdDivergence flags bullish exhaustion: price printing a 3-bar lower low
// while the still-negative MACD histogram prints a higher low.
func macdDivergence(lows []float64, hist []Float) []bool {
	n := len(lows)
	out := make([]bool, n)
	for i := 2; i < n; i++ {
		if !hist[i].Valid || !hist[i-1].Valid || !hist[i-2].Valid {
			continue
		}
		priceLL := lows[i] < lows[i-1] && lows[i] < lows[i-2]
		histHL := hist[i].Value > hist[i-1].Value && hist[i].Value > hist[i-2].Value
		out[i] = priceLL && histHL && hist[i].Value < 0
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

func trueRanges(highs, lows, closes []float64) []float64 {
	n := len(highs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	out[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		out[i] = trueRange(highs[i], lows[i], closes[i-1])
	}
	return out
}

func rollingMean(values []float64, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	if n < period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = valid(sum / float64(period))
	for i := period; i < n; i++ {
		sum += values[i] - values[i-period]
		out[i] = valid(sum / float64(period))
	}
	return out
}

// rollingStd is the sample standard deviation over the window.
func rollingStd(values []float64, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	for i := period - 1; i < n; i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(period)
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = valid(math.Sqrt(ss / float64(period-1)))
	}
	return out
}

func rollingMax(values []float64, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	for i := period - 1; i < n; i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = valid(m)
	}
	return out
}

func rollingMin(values []float64, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	for i := period - 1; i < n; i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = valid(m)
	}
	return out
}

// smaSeededEMA is an EMA seeded with the simple average of the first period
// values; valid from index period-1.
func smaSeededEMA(values []float64, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	if n < period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	cur := sum / float64(period)
	out[period-1] = valid(cur)
	mult := 2.0 / float64(period+1)
	for i := period; i < n; i++ {
		cur = values[i]*mult + cur*(1-mult)
		out[i] = valid(cur)
	}
	return out
}

// smaSeededEMAFloat is smaSeededEMA over a column whose leading cells may be
// invalid; the seed averages the first period valid values.
func smaSeededEMAFloat(values []Float, period int) []Float {
	n := len(values)
	out := make([]Float, n)
	first := -1
	for i, v := range values {
		if v.Valid {
			first = i
			break
		}
	}
	if first < 0 || n-first < period {
		return out
	}
	var sum float64
	for i := first; i < first+period; i++ {
		sum += values[i].Value
	}
	cur := sum / float64(period)
	out[first+period-1] = valid(cur)
	mult := 2.0 / float64(period+1)
	for i := first + period; i < n; i++ {
		cur = values[i].Value*mult + cur*(1-mult)
		out[i] = valid(cur)
	}
	return out
}

// ewma is a recursive exponential average with alpha = 2/(span+1), seeded
// with the first valid input. Used by the SMI smoothing chain.
func ewma(values []Float, span int) []Float {
	n := len(values)
	out := make([]Float, n)
	alpha := 2.0 / float64(span+1)
	seeded := false
	var cur float64
	for i := 0; i < n; i++ {
		if !values[i].Valid {
			continue
		}
		if !seeded {
			cur = values[i].Value
			seeded = true
		} else {
			cur = values[i].Value*alpha + cur*(1-alpha)
		}
		out[i] = valid(cur)
	}
	return out
}
