package dto

import (
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"
)

// StreamDataAnalyzer is the payload carried on the ticker.analyzer stream.
type StreamDataAnalyzer struct {
	Symbol string `json:"symbol"`
}

// GetStockDataParam identifies one chart request against the provider.
type GetStockDataParam struct {
	Symbol   string
	Interval string
	Range    string
}

// CompanyInfo is the provider fundamentals record plus consensus data that
// is context for the AI council but not a scorer input.
type CompanyInfo struct {
	scoring.Fundamentals
	TargetMeanPrice *float64 `json:"target_mean_price,omitempty"`
}

// RiskSummary is the metrics block of an analysis response.
type RiskSummary struct {
	Upside   float64 `json:"upside"`
	Sharpe   float64 `json:"sharpe"`
	Drawdown float64 `json:"drawdown"`
}

// HedgeFund is the allocator-view block of an analysis response.
type HedgeFund struct {
	Score   int                    `json:"score"`
	Verdict string                 `json:"verdict"`
	Data    technicals.RiskMetrics `json:"data"`
}

// AnalysisResult is the full payload of a ticker analysis.
type AnalysisResult struct {
	Ticker         string                  `json:"ticker"`
	Price          float64                 `json:"price"`
	Score          int                     `json:"score"`
	ScoreBreakdown scoring.Breakdown       `json:"score_breakdown"`
	HedgeFund      HedgeFund               `json:"hedge_fund"`
	Metrics        RiskSummary             `json:"metrics"`
	Signals        technicals.Snapshot     `json:"signals"`
	Info           CompanyInfo             `json:"info"`
	AIAnalysis     *AICouncilVerdict       `json:"ai_analysis,omitempty"`
	News           []string                `json:"news,omitempty"`
	AnalystActions []scoring.AnalystAction `json:"analyst_actions,omitempty"`
	OptionsData    *scoring.OptionsFlow    `json:"options_data,omitempty"`
}
