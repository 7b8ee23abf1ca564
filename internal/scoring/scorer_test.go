package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"golang-ticker-analyzer/internal/technicals"
)

func f64(v float64) *float64 { return &v }

func neutralSnapshot() technicals.Snapshot {
	return technicals.Snapshot{
		RSI:         50,
		RSIPrev:     50,
		VolumeRatio: 1,
	}
}

func bullishSnapshot() technicals.Snapshot {
	return technicals.Snapshot{
		Close:          100,
		RSI:            45,
		RSIPrev:        38,
		ADX:            30,
		RelStrength:    0.10,
		SMI:            -50,
		VolumeRatio:    1.5,
		VWAPWeekly:     90,
		MACDDivergence: true,
	}
}

func bullishFundamentals() Fundamentals {
	return Fundamentals{
		Symbol:               "TEST",
		InstitutionsPercent:  f64(0.70),
		ShortRatio:           f64(6.0),
		InsiderBuyingCluster: true,
		PEGRatio:             f64(0.5),
		FCFYield:             f64(0.08),
		SectorRotation:       "Leading",
		EarningsSurprises: []EarningsSurprise{
			{Actual: 1.10, Estimate: 1.00},
			{Actual: 0.95, Estimate: 0.90},
			{Actual: 1.30, Estimate: 1.20},
			{Actual: 0.80, Estimate: 0.75},
		},
	}
}

func TestScoreNeutralInputs(t *testing.T) {
	score, bd := Score(neutralSnapshot(), Fundamentals{}, 50, nil, nil)

	assert.Equal(t, 50, bd.Technical)
	assert.Equal(t, 20, bd.Momentum, "ADX 0 is chop, baseline drops to 20")
	assert.Equal(t, 50, bd.SmartMoney)
	assert.Equal(t, 50, bd.Quality)
	assert.Equal(t, 50, bd.Edge)
	assert.Equal(t, 50, bd.AISentiment)
	assert.Equal(t, 47, score)
}

func TestScoreDeterministic(t *testing.T) {
	sig := bullishSnapshot()
	f := bullishFundamentals()
	opts := &OptionsFlow{PutCallRatio: 1.4}

	s1, bd1 := Score(sig, f, 72, opts, nil)
	s2, bd2 := Score(sig, f, 72, opts, nil)
	assert.Equal(t, s1, s2)
	assert.Equal(t, bd1, bd2)
}

func TestScoreTechnicalBucket(t *testing.T) {
	cases := []struct {
		name string
		sig  technicals.Snapshot
		want int
	}{
		{"neutral", neutralSnapshot(), 50},
		{"rsi reclaims 40", technicals.Snapshot{RSIPrev: 38, RSI: 45, VolumeRatio: 1}, 70},
		{"rsi already above 40", technicals.Snapshot{RSIPrev: 45, RSI: 55, VolumeRatio: 1}, 50},
		{"macd divergence", technicals.Snapshot{RSI: 50, RSIPrev: 50, MACDDivergence: true, VolumeRatio: 1}, 75},
		{"oversold smi", technicals.Snapshot{RSI: 50, RSIPrev: 50, SMI: -45, VolumeRatio: 1}, 60},
		{"all bonuses clamp", bullishSnapshot(), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bd := Score(tc.sig, Fundamentals{}, 50, nil, nil)
			assert.Equal(t, tc.want, bd.Technical)
		})
	}
}

func TestScoreMomentumBucket(t *testing.T) {
	cases := []struct {
		name string
		sig  technicals.Snapshot
		want int
	}{
		{"chop floor", technicals.Snapshot{ADX: 10, RSI: 50, RSIPrev: 50, VolumeRatio: 1}, 20},
		{"trending baseline", technicals.Snapshot{ADX: 25, RSI: 50, RSIPrev: 50, VolumeRatio: 1}, 50},
		{"outperformance", technicals.Snapshot{ADX: 25, RelStrength: 0.08, RSI: 50, RSIPrev: 50, VolumeRatio: 1}, 70},
		{"above vwap", technicals.Snapshot{ADX: 25, Close: 101, VWAPWeekly: 100, RSI: 50, RSIPrev: 50, VolumeRatio: 1}, 65},
		{"chop with bonuses", technicals.Snapshot{ADX: 10, RelStrength: 0.08, Close: 101, VWAPWeekly: 100, RSI: 50, RSIPrev: 50, VolumeRatio: 1}, 55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bd := Score(tc.sig, Fundamentals{}, 50, nil, nil)
			assert.Equal(t, tc.want, bd.Momentum)
		})
	}
}

func TestScoreSmartMoneyPutCallRatio(t *testing.T) {
	sig := neutralSnapshot()

	_, bd := Score(sig, Fundamentals{}, 50, &OptionsFlow{PutCallRatio: 1.5}, nil)
	assert.Equal(t, 70, bd.SmartMoney, "contrarian put skew adds points")

	_, bd = Score(sig, Fundamentals{}, 50, &OptionsFlow{PutCallRatio: 0.5}, nil)
	assert.Equal(t, 30, bd.SmartMoney, "call chasing subtracts")

	_, bd = Score(sig, Fundamentals{}, 50, nil, nil)
	assert.Equal(t, 50, bd.SmartMoney, "missing chain is neutral")
}

func TestScoreSmartMoneyAccumulationNeedsVolume(t *testing.T) {
	f := Fundamentals{InstitutionsPercent: f64(0.70)}

	sig := neutralSnapshot() // volume ratio 1.0
	_, bd := Score(sig, f, 50, nil, nil)
	assert.Equal(t, 50, bd.SmartMoney)

	sig.VolumeRatio = 1.5
	_, bd = Score(sig, f, 50, nil, nil)
	assert.Equal(t, 70, bd.SmartMoney)
}

func TestScoreQualityBucket(t *testing.T) {
	_, bd := Score(neutralSnapshot(), Fundamentals{PEGRatio: f64(0.8)}, 50, nil, nil)
	assert.Equal(t, 70, bd.Quality)

	_, bd = Score(neutralSnapshot(), Fundamentals{PEGRatio: f64(2.5)}, 50, nil, nil)
	assert.Equal(t, 30, bd.Quality)

	// Four straight beats.
	f := Fundamentals{EarningsSurprises: bullishFundamentals().EarningsSurprises}
	_, bd = Score(neutralSnapshot(), f, 50, nil, nil)
	assert.Equal(t, 75, bd.Quality)

	// One miss spoils the streak.
	f.EarningsSurprises[1] = EarningsSurprise{Actual: 0.85, Estimate: 0.90}
	_, bd = Score(neutralSnapshot(), f, 50, nil, nil)
	assert.Equal(t, 50, bd.Quality)
}

func TestScoreEdgeBucket(t *testing.T) {
	cases := []struct {
		name string
		f    Fundamentals
		want int
	}{
		{"leading", Fundamentals{SectorRotation: "Leading"}, 75},
		{"improving", Fundamentals{SectorRotation: "Improving"}, 65},
		{"lagging", Fundamentals{SectorRotation: "Lagging"}, 35},
		{"neutral", Fundamentals{SectorRotation: "Neutral"}, 50},
		{"hype tape", Fundamentals{SectorRotation: "Leading", NewsVelocity: f64(1.2)}, 55},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, bd := Score(neutralSnapshot(), tc.f, 50, nil, nil)
			assert.Equal(t, tc.want, bd.Edge)
		})
	}
}

func TestScoreWeightedBlend(t *testing.T) {
	// All buckets known: 100*.2 + 85*.1 + 100*.2 + 100*.2 + 75*.2 + 90*.1 = 92.5
	score, bd := Score(bullishSnapshot(), bullishFundamentals(), 90, nil, nil)
	assert.Equal(t, Breakdown{
		Technical:   100,
		Momentum:    85,
		SmartMoney:  100,
		Quality:     100,
		Edge:        75,
		AISentiment: 90,
	}, bd)
	assert.Equal(t, 92, score, "truncated, not rounded")
}

func TestScoreAltmanGuardCapsDistressedNames(t *testing.T) {
	f := bullishFundamentals()
	f.AltmanZ = f64(1.2)
	score, _ := Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 30, score, "distress-zone cap overrides a bullish blend")

	// The boundary itself is not distressed.
	f.AltmanZ = f64(1.8)
	score, _ = Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 92, score)
}

func TestScoreVIXGuardCapsPanicTape(t *testing.T) {
	f := bullishFundamentals()
	f.VIXLevel = f64(35)
	score, _ := Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 40, score)

	f.VIXLevel = f64(30)
	score, _ = Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 92, score, "VIX exactly at the panic level does not cap")

	// Missing VIX defaults to a calm 20.
	f.VIXLevel = nil
	score, _ = Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 92, score)
}

func TestScoreBothGuardsTakeTheLowerCap(t *testing.T) {
	f := bullishFundamentals()
	f.AltmanZ = f64(1.2)
	f.VIXLevel = f64(35)
	score, _ := Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, 30, score)
}

func TestScoreGuardIdempotent(t *testing.T) {
	f := bullishFundamentals()
	f.AltmanZ = f64(1.2)
	s1, _ := Score(bullishSnapshot(), f, 90, nil, nil)
	s2, _ := Score(bullishSnapshot(), f, 90, nil, nil)
	assert.Equal(t, s1, s2)
	assert.Equal(t, 30, s1)
}

func TestScoreStaysInRange(t *testing.T) {
	bearish := Fundamentals{
		PEGRatio:       f64(3.0),
		SectorRotation: "Lagging",
		NewsVelocity:   f64(1.5),
	}
	score, bd := Score(neutralSnapshot(), bearish, 0, &OptionsFlow{PutCallRatio: 0.4}, nil)
	assert.GreaterOrEqual(t, score, 0)
	for _, b := range []int{bd.Technical, bd.Momentum, bd.SmartMoney, bd.Quality, bd.Edge, bd.AISentiment} {
		assert.GreaterOrEqual(t, b, 0)
		assert.LessOrEqual(t, b, 100)
	}

	score, _ = Score(bullishSnapshot(), bullishFundamentals(), 100, &OptionsFlow{PutCallRatio: 1.5}, nil)
	assert.LessOrEqual(t, score, 100)
}

func TestHedgeFundScoreTiers(t *testing.T) {
	cases := []struct {
		name        string
		f           Fundamentals
		risk        technicals.RiskMetrics
		wantScore   int
		wantVerdict string
	}{
		{
			"sponsored and efficient",
			Fundamentals{InstitutionsPercent: f64(0.70)},
			technicals.RiskMetrics{Sharpe: 2.0},
			90, verdictFavorite,
		},
		{
			"sponsored only",
			Fundamentals{InstitutionsPercent: f64(0.70)},
			technicals.RiskMetrics{Sharpe: 1.0},
			70, verdictAccumulation,
		},
		{
			"unknown ownership",
			Fundamentals{},
			technicals.RiskMetrics{Sharpe: 0.5},
			50, verdictNeutral,
		},
		{
			"retail bagholder",
			Fundamentals{InstitutionsPercent: f64(0.10)},
			technicals.RiskMetrics{Sharpe: -1.0},
			25, verdictAvoid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, verdict := HedgeFundScore(tc.f, tc.risk)
			assert.Equal(t, tc.wantScore, score)
			assert.Equal(t, tc.wantVerdict, verdict)
		})
	}
}
