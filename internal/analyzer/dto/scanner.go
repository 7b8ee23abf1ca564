package dto

// StreamDataScanner is the payload carried on the market.scanner stream.
type StreamDataScanner struct {
	Symbol string `json:"symbol"`
}

// ScanResult is one row of the market scan table.
type ScanResult struct {
	Ticker         string  `json:"ticker"`
	Price          float64 `json:"price"`
	RSI            float64 `json:"rsi"`
	RelVolume      float64 `json:"rel_volume"`
	Recommendation string  `json:"recommendation"`
	UpsidePercent  float64 `json:"upside_percent"`
	MarketCap      float64 `json:"market_cap"`
}

// ScanSummary is the scan fan-out response.
type ScanSummary struct {
	Enqueued int      `json:"enqueued"`
	Skipped  []string `json:"skipped,omitempty"`
}
