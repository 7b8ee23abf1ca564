package technicals

import "math"

// Snapshot is the flat latest-signals record handed to the scorer and the AI
// narration layer. Fields that have no value yet carry their documented
// neutral default (RSI 50, ADX 0, volume ratio 1, levels 0); the pivot levels
// stay nullable because the first bar genuinely has none.
type Snapshot struct {
	Close   float64 `json:"close"`
	RSI     float64 `json:"rsi"`
	RSIPrev float64 `json:"rsi_prev"`
	ADX     float64 `json:"adx"`

	RelStrength float64 `json:"rel_strength"`
	SqueezeOn   bool    `json:"sqz_on"`
	SqueezeMom  float64 `json:"sqz_mom"`
	SMI         float64 `json:"smi"`

	Volume      float64 `json:"volume"`
	VolumeRatio float64 `json:"volume_ratio"`

	Pivot Float `json:"pivot"`
	R1    Float `json:"r1"`
	S1    Float `json:"s1"`

	SMA50      float64 `json:"sma_50"`
	SMA200     float64 `json:"sma_200"`
	BBUpper    float64 `json:"bb_upper"`
	BBLower    float64 `json:"bb_lower"`
	VWAPWeekly float64 `json:"vwap_weekly"`

	MACDDivergence bool `json:"macd_div"`
	DoubleBottom   bool `json:"double_bottom"`
	CupHandle      bool `json:"cup_handle"`
}

// RiskMetrics are simple statistics over the raw daily close returns.
type RiskMetrics struct {
	Volatility  float64 `json:"volatility"`
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

const tradingDaysPerYear = 252

// Latest extracts the snapshot from the panel's final row.
func (p *Panel) Latest() Snapshot {
	return p.SnapshotAt(p.Len() - 1)
}

// SnapshotAt extracts the snapshot as of row i, reading only rows <= i. The
// backtester walks history with this instead of re-truncating the series per
// bar; the two are equivalent because no panel cell looks ahead. With fewer
// than two rows the previous-value fields repeat the current ones.
func (p *Panel) SnapshotAt(i int) Snapshot {
	prev := i - 1
	if prev < 0 {
		prev = i
	}
	return Snapshot{
		Close:          p.Bars[i].Close,
		RSI:            p.RSI[i].Or(50),
		RSIPrev:        p.RSI[prev].Or(50),
		ADX:            p.ADX[i].Or(0),
		RelStrength:    p.RelStrength[i].Or(0),
		SqueezeOn:      p.SqueezeOn[i],
		SqueezeMom:     p.SqueezeMom[i].Or(0),
		SMI:            p.SMI[i].Or(0),
		Volume:         p.Bars[i].Volume,
		VolumeRatio:    p.VolumeRatio[i].Or(1),
		Pivot:          p.Pivot[i],
		R1:             p.R1[i],
		S1:             p.S1[i],
		SMA50:          p.SMA50[i].Or(0),
		SMA200:         p.SMA200[i].Or(0),
		BBUpper:        p.BBUpper[i].Or(0),
		BBLower:        p.BBLower[i].Or(0),
		VWAPWeekly:     p.VWAPWeekly[i].Or(0),
		MACDDivergence: p.MACDDivergence[i],
		DoubleBottom:   p.DoubleBottom[i],
		CupHandle:      p.CupHandle[i],
	}
}

// ComputeRiskMetrics derives annualized volatility, Sharpe and max drawdown
// from the raw close series (not from the indicator panel). A series without
// return variance reports a Sharpe of zero rather than dividing by it.
func ComputeRiskMetrics(bars []Bar) RiskMetrics {
	if len(bars) < 2 {
		return RiskMetrics{}
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close == 0 {
			continue
		}
		returns = append(returns, bars[i].Close/bars[i-1].Close-1)
	}
	if len(returns) < 2 {
		return RiskMetrics{}
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(returns)-1))

	sharpe := 0.0
	if std > 0 {
		sharpe = mean / std * math.Sqrt(tradingDaysPerYear)
	}

	cum := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		if dd := cum/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}

	return RiskMetrics{
		Volatility:  std * math.Sqrt(tradingDaysPerYear),
		Sharpe:      sharpe,
		MaxDrawdown: maxDD,
	}
}
