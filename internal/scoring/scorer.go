// Package scoring blends technical signals, fundamentals, options flow and
// AI sentiment into the composite 0-100 score. Everything here is a pure
// function of its inputs: identical inputs always yield the identical score
// and breakdown, which the backtester relies on for its decision log.
package scoring

import "golang-ticker-analyzer/internal/technicals"

// Factor weights of the institutional scoring model.
const (
	weightTechnical  = 0.20
	weightMomentum   = 0.10
	weightSmartMoney = 0.20
	weightQuality    = 0.20
	weightEdge       = 0.20
	weightAI         = 0.10
)

// Global guard caps. These are min operations, not additive penalties, so a
// distressed or panicking tape bounds the score no matter how bullish the
// factor buckets look.
const (
	altmanDistressZone = 1.8
	altmanCap          = 30
	vixPanicLevel      = 30
	vixCap             = 40
)

const neutralSentiment = 50

// Breakdown is the human-auditable per-bucket result. Every bucket is
// clamped to [0,100].
type Breakdown struct {
	Technical   int `json:"technical_score"`
	Momentum    int `json:"momentum_score"`
	SmartMoney  int `json:"smart_money_score"`
	Quality     int `json:"quality_score"`
	Edge        int `json:"edge_score"`
	AISentiment int `json:"ai_score"`
}

// Score runs the institutional scoring model. opts may be nil (neutral P/C
// ratio of 1.0) and actions may be empty; aiSentiment is the externally
// produced 0-100 sentiment integer. The returned final score is in [0,100].
func Score(sig technicals.Snapshot, f Fundamentals, aiSentiment int, opts *OptionsFlow, actions []AnalystAction) (int, Breakdown) {
	_ = actions // carried for the data contract; no bucket consumes them yet

	bd := Breakdown{
		Technical:   scoreTechnical(sig),
		Momentum:    scoreMomentum(sig),
		SmartMoney:  scoreSmartMoney(sig, f, opts),
		Quality:     scoreQuality(f),
		Edge:        scoreEdge(f),
		AISentiment: clampScore(aiSentiment),
	}

	final := float64(bd.Technical)*weightTechnical +
		float64(bd.Momentum)*weightMomentum +
		float64(bd.SmartMoney)*weightSmartMoney +
		float64(bd.Quality)*weightQuality +
		float64(bd.Edge)*weightEdge +
		float64(bd.AISentiment)*weightAI

	if f.AltmanZ != nil && *f.AltmanZ < altmanDistressZone {
		if final > altmanCap {
			final = altmanCap
		}
	}
	if orFloat(f.VIXLevel, 20) > vixPanicLevel {
		if final > vixCap {
			final = vixCap
		}
	}

	return int(final), bd
}

// scoreTechnical rewards the RSI reclaiming the 40 regime line, bullish MACD
// divergence and a deeply oversold SMI.
func scoreTechnical(sig technicals.Snapshot) int {
	points := 50
	if sig.RSIPrev <= 40 && sig.RSI > 40 {
		points += 20
	}
	if sig.MACDDivergence {
		points += 25
	}
	if sig.SMI < -40 {
		points += 10
	}
	return clampScore(points)
}

// scoreMomentum gates on ADX first: below 20 the tape is chop and the
// baseline collapses to 20 before any bonuses apply.
func scoreMomentum(sig technicals.Snapshot) int {
	points := 50
	if sig.ADX < 20 {
		points = 20
	}
	if sig.RelStrength > 0.05 {
		points += 20
	}
	if sig.Close > sig.VWAPWeekly {
		points += 15
	}
	return clampScore(points)
}

func scoreSmartMoney(sig technicals.Snapshot, f Fundamentals, opts *OptionsFlow) int {
	points := 50
	if orFloat(f.InstitutionsPercent, 0) > 0.60 && sig.VolumeRatio > 1.20 {
		points += 20
	}
	if orFloat(f.ShortRatio, 0) > 5.0 {
		points += 25
	}
	if f.InsiderBuyingCluster {
		points += 25
	}
	pcr := 1.0
	if opts != nil {
		pcr = opts.PutCallRatio
	}
	if pcr > 1.20 {
		points += 20
	} else if pcr < 0.60 {
		points -= 20
	}
	return clampScore(points)
}

func scoreQuality(f Fundamentals) int {
	points := 50
	if f.PEGRatio != nil {
		if *f.PEGRatio < 1.0 {
			points += 20
		} else if *f.PEGRatio > 2.0 {
			points -= 20
		}
	}
	if len(f.EarningsSurprises) >= 4 && allBeats(f.EarningsSurprises) {
		points += 25
	}
	if orFloat(f.FCFYield, 0) > 0.05 {
		points += 20
	}
	return clampScore(points)
}

func scoreEdge(f Fundamentals) int {
	points := 50
	switch f.SectorRotation {
	case "Leading":
		points += 25
	case "Improving":
		points += 15
	case "Lagging":
		points -= 15
	}
	// A news cycle running hotter than ~one item an hour is hype, not edge.
	if orFloat(f.NewsVelocity, 0) > 0.8 {
		points -= 20
	}
	return clampScore(points)
}

func allBeats(surprises []EarningsSurprise) bool {
	for _, s := range surprises {
		if s.Actual <= s.Estimate {
			return false
		}
	}
	return true
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
