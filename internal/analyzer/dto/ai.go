package dto

// AICouncilVerdict is the strict-JSON verdict of the AI strategy council.
type AICouncilVerdict struct {
	SentimentScore    int    `json:"sentiment_score"`
	BullCase          string `json:"bull_case"`
	BearCase          string `json:"bear_case"`
	RetailMood        string `json:"retail_mood"`
	Summary           string `json:"summary"`
	RecommendedAction string `json:"recommended_action"`
}

// TechContext is the hard-data snapshot injected into the council prompt so
// the narrative stays anchored to the indicator panel.
type TechContext struct {
	Price      float64
	RSI        float64
	ADX        float64
	PutCall    string
	Consensus  string
	Upside     float64
	S1         string
	R1         string
	SMA50      float64
	SMA200     float64
	BBLower    float64
	BBUpper    float64
	VWAPWeekly float64
}
