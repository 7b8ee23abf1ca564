package repository

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionalNumber(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  float64
		valid bool
	}{
		{name: "plain number", raw: "12.34", want: 12.34, valid: true},
		{name: "missing dash", raw: "-", valid: false},
		{name: "empty", raw: "", valid: false},
		{name: "percent", raw: "62.50%", want: 62.5, valid: true},
		{name: "billions", raw: "3.21B", want: 3.21e9, valid: true},
		{name: "millions", raw: "150.00M", want: 150e6, valid: true},
		{name: "thousands", raw: "42K", want: 42e3, valid: true},
		{name: "thousands separator", raw: "1,234.56", want: 1234.56, valid: true},
		{name: "negative percent", raw: "-4.20%", want: -4.2, valid: true},
		{name: "garbage", raw: "N/A", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseOptionalNumber(tt.raw)
			if !tt.valid {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestAsFraction(t *testing.T) {
	assert.Nil(t, asFraction(nil))

	pct := 62.5
	got := asFraction(&pct)
	require.NotNil(t, got)
	assert.InDelta(t, 0.625, *got, 1e-12)
}

func TestRecommendationText(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		score *float64
		want  string
	}{
		{name: "nil is hold", score: nil, want: "Hold"},
		{name: "strong buy boundary", score: f(1.5), want: "Strong Buy"},
		{name: "buy", score: f(2.0), want: "Buy"},
		{name: "buy boundary", score: f(2.5), want: "Buy"},
		{name: "hold", score: f(3.0), want: "Hold"},
		{name: "hold boundary", score: f(3.5), want: "Hold"},
		{name: "sell", score: f(4.2), want: "Sell"},
		{name: "zero is hold", score: f(0), want: "Hold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendationText(tt.score))
		})
	}
}

func TestParseSnapshotTable(t *testing.T) {
	html := `<html><body><table class="snapshot-table2"><tr>
		<td>P/E</td><td>24.50</td>
		<td>Market Cap</td><td>1.20B</td>
	</tr><tr>
		<td>Inst Own</td><td>71.30%</td>
		<td>Recom</td><td>2.10</td>
	</tr></table></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	snapshot := parseSnapshotTable(doc)
	assert.Equal(t, "24.50", snapshot["P/E"])
	assert.Equal(t, "1.20B", snapshot["Market Cap"])
	assert.Equal(t, "71.30%", snapshot["Inst Own"])
	assert.Equal(t, "2.10", snapshot["Recom"])
}

func TestSectorBenchmarkSymbol(t *testing.T) {
	assert.Equal(t, "XLK", SectorBenchmarkSymbol("Technology"))
	assert.Equal(t, "XLF", SectorBenchmarkSymbol("Financial Services"))
	assert.Equal(t, "XLE", SectorBenchmarkSymbol("Energy"))
	assert.Equal(t, "SPY", SectorBenchmarkSymbol("Unknown Sector"))
	assert.Equal(t, "SPY", SectorBenchmarkSymbol(""))
}
