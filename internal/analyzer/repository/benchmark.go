package repository

// sectorETF maps provider sector names to their SPDR sector ETF.
var sectorETF = map[string]string{
	"Technology":             "XLK",
	"Financial Services":     "XLF",
	"Healthcare":             "XLV",
	"Consumer Cyclical":      "XLY",
	"Energy":                 "XLE",
	"Industrials":            "XLI",
	"Consumer Defensive":     "XLP",
	"Utilities":              "XLU",
	"Real Estate":            "XLRE",
	"Basic Materials":        "XLB",
	"Communication Services": "XLC",
}

// SectorBenchmarkSymbol returns the SPDR ETF for a sector, falling back to
// the broad market when the sector is unknown.
func SectorBenchmarkSymbol(sector string) string {
	if etf, ok := sectorETF[sector]; ok {
		return etf
	}
	return "SPY"
}
