package scoring

import "golang-ticker-analyzer/internal/technicals"

// Hedge-fund verdict tiers.
const (
	verdictFavorite     = "Institutional Favorite 💎"
	verdictAccumulation = "Quality Accumulation 🟢"
	verdictNeutral      = "Mixed / Neutral 🟡"
	verdictAvoid        = "Avoid / High Risk 🔴"
)

// HedgeFundScore rates a name the way an allocator would: institutional
// sponsorship plus risk-adjusted return, on its own 0-100 scale with a
// qualitative verdict at the 80/60/40 tiers.
func HedgeFundScore(f Fundamentals, risk technicals.RiskMetrics) (int, string) {
	score := 50
	if f.InstitutionsPercent != nil {
		if *f.InstitutionsPercent > 0.6 {
			score += 20
		} else if *f.InstitutionsPercent < 0.2 {
			score -= 10
		}
	}
	if risk.Sharpe > 1.5 {
		score += 20
	} else if risk.Sharpe < 0 {
		score -= 15
	}
	score = clampScore(score)

	switch {
	case score >= 80:
		return score, verdictFavorite
	case score >= 60:
		return score, verdictAccumulation
	case score >= 40:
		return score, verdictNeutral
	default:
		return score, verdictAvoid
	}
}
