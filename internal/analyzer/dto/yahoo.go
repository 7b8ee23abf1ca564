package dto

// YahooChartResponse mirrors the v8 chart API envelope. Quote arrays use
// pointers because the API reports halted sessions as nulls.
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *YahooAPIError     `json:"error"`
	} `json:"chart"`
}

// YahooChartResult is one symbol's chart data.
type YahooChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// YahooAPIError is the provider error payload.
type YahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooOptionsResponse mirrors the v7 options API envelope, trimmed to the
// nearest-expiry volumes needed for the put/call ratio.
type YahooOptionsResponse struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Options         []struct {
				ExpirationDate int64              `json:"expirationDate"`
				Calls          []YahooOptionQuote `json:"calls"`
				Puts           []YahooOptionQuote `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *YahooAPIError `json:"error"`
	} `json:"optionChain"`
}

// YahooOptionQuote is a single option contract row.
type YahooOptionQuote struct {
	Strike float64 `json:"strike"`
	Volume int64   `json:"volume"`
}
