package dto

import "golang-ticker-analyzer/internal/backtest"

// BacktestRequest selects the simulated history window.
type BacktestRequest struct {
	Ticker string `json:"ticker"`
	Range  string `json:"range"` // provider range string, default "1y"
}

// BacktestResponse wraps the simulator result.
type BacktestResponse struct {
	Result *backtest.Result `json:"result"`
}
