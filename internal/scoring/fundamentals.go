package scoring

// Fundamentals is the typed record the excluded data fetchers hand to the
// scorer. Every numeric field is optional: a nil pointer means the provider
// had no value, and the scorer substitutes the bucket-neutral default once at
// its normalization boundary instead of sprinkling fallbacks through the
// formulas.
type Fundamentals struct {
	Symbol         string   `json:"symbol"`
	Sector         string   `json:"sector"`
	Recommendation string   `json:"recommendation"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`

	PERatio   *float64 `json:"pe_ratio,omitempty"`
	PEGRatio  *float64 `json:"peg_ratio,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`

	InstitutionsPercent  *float64 `json:"institutions_percent,omitempty"` // fraction, 0..1
	ShortRatio           *float64 `json:"short_ratio,omitempty"`          // days to cover
	InsiderBuyingCluster bool     `json:"insider_buying_cluster"`

	FCFYield    *float64 `json:"fcf_yield,omitempty"` // fraction, 0..1
	GrossMargin *float64 `json:"gross_margin,omitempty"`
	AltmanZ     *float64 `json:"altman_z,omitempty"`
	VIXLevel    *float64 `json:"vix_level,omitempty"`

	SectorRotation string   `json:"sector_rotation"` // Leading | Improving | Lagging | Neutral
	NewsVelocity   *float64 `json:"news_velocity,omitempty"` // items per hour

	EarningsSurprises []EarningsSurprise `json:"surprises,omitempty"`
}

// EarningsSurprise is one reported quarter versus its consensus estimate.
type EarningsSurprise struct {
	Actual   float64 `json:"actual"`
	Estimate float64 `json:"estimate"`
}

// OptionsFlow summarizes the nearest-expiry option chain.
type OptionsFlow struct {
	PutCallRatio float64 `json:"pcr"`
	CallVolume   int64   `json:"call_volume"`
	PutVolume    int64   `json:"put_volume"`
	Expiration   string  `json:"expiration"`
}

// AnalystAction is a single upgrade/downgrade event.
type AnalystAction struct {
	Date    string `json:"date"`
	Firm    string `json:"firm"`
	ToGrade string `json:"to_grade"`
	Action  string `json:"action"` // up, down, main, init, reit
}

func orFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
