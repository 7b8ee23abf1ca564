package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	gocache "github.com/patrickmn/go-cache"
)

// FinvizRepository scrapes company fundamentals and analyst actions from the
// finviz quote page.
type FinvizRepository interface {
	GetFundamentals(ctx context.Context, symbol string) (*dto.CompanyInfo, error)
	GetAnalystActions(ctx context.Context, symbol string) ([]scoring.AnalystAction, error)
}

type finvizRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
	cache  *gocache.Cache
}

// NewFinvizRepository creates a new finviz scraper.
func NewFinvizRepository(cfg *config.Config, log *logger.Logger) FinvizRepository {
	return &finvizRepository{
		client: &http.Client{Timeout: 30 * time.Second},
		cfg:    cfg,
		logger: log,
		cache:  gocache.New(15*time.Minute, 30*time.Minute),
	}
}

func (r *finvizRepository) GetFundamentals(ctx context.Context, symbol string) (*dto.CompanyInfo, error) {
	cacheKey := "fundamentals:" + symbol
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*dto.CompanyInfo), nil
	}

	doc, err := r.fetchQuotePage(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snapshot := parseSnapshotTable(doc)

	info := &dto.CompanyInfo{}
	info.Symbol = symbol
	info.Sector = strings.TrimSpace(doc.Find(".quote-links a").First().Text())
	info.CurrentPrice = parseOptionalNumber(snapshot["Price"])
	info.PERatio = parseOptionalNumber(snapshot["P/E"])
	info.PEGRatio = parseOptionalNumber(snapshot["PEG"])
	info.MarketCap = parseOptionalNumber(snapshot["Market Cap"])
	info.ShortRatio = parseOptionalNumber(snapshot["Short Ratio"])
	info.TargetMeanPrice = parseOptionalNumber(snapshot["Target Price"])
	info.InstitutionsPercent = asFraction(parseOptionalNumber(snapshot["Inst Own"]))
	info.GrossMargin = asFraction(parseOptionalNumber(snapshot["Gross Margin"]))
	info.Recommendation = recommendationText(parseOptionalNumber(snapshot["Recom"]))

	// Net insider accumulation above 1% over the reported window counts as a
	// buying cluster.
	if insider := parseOptionalNumber(snapshot["Insider Trans"]); insider != nil && *insider > 1.0 {
		info.InsiderBuyingCluster = true
	}

	r.cache.Set(cacheKey, info, gocache.DefaultExpiration)
	return info, nil
}

func (r *finvizRepository) GetAnalystActions(ctx context.Context, symbol string) ([]scoring.AnalystAction, error) {
	doc, err := r.fetchQuotePage(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var actions []scoring.AnalystAction
	doc.Find("table.js-table-ratings tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		actions = append(actions, scoring.AnalystAction{
			Date:    strings.TrimSpace(cells.Eq(0).Text()),
			Action:  strings.ToLower(strings.TrimSpace(cells.Eq(1).Text())),
			Firm:    strings.TrimSpace(cells.Eq(2).Text()),
			ToGrade: strings.TrimSpace(cells.Eq(3).Text()),
		})
	})
	return actions, nil
}

func (r *finvizRepository) fetchQuotePage(ctx context.Context, symbol string) (*goquery.Document, error) {
	url := fmt.Sprintf("%s/quote.ashx?t=%s", r.cfg.Finviz.BaseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch finviz page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from finviz",
			logger.IntField("status_code", resp.StatusCode), logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("received non-OK response from finviz: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse finviz page: %w", err)
	}
	return doc, nil
}

// parseSnapshotTable flattens the finviz snapshot table into label -> value.
func parseSnapshotTable(doc *goquery.Document) map[string]string {
	snapshot := make(map[string]string)
	cells := doc.Find("table.snapshot-table2 td")
	for i := 0; i+1 < cells.Length(); i += 2 {
		label := strings.TrimSpace(cells.Eq(i).Text())
		value := strings.TrimSpace(cells.Eq(i+1).Text())
		if label != "" {
			snapshot[label] = value
		}
	}
	return snapshot
}

// parseOptionalNumber handles finviz number formats: "-" for missing, B/M/K
// magnitude suffixes and trailing percent signs.
func parseOptionalNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil
	}

	mult := 1.0
	raw = strings.TrimSuffix(raw, "%")
	switch {
	case strings.HasSuffix(raw, "B"):
		mult = 1e9
		raw = strings.TrimSuffix(raw, "B")
	case strings.HasSuffix(raw, "M"):
		mult = 1e6
		raw = strings.TrimSuffix(raw, "M")
	case strings.HasSuffix(raw, "K"):
		mult = 1e3
		raw = strings.TrimSuffix(raw, "K")
	}
	raw = strings.ReplaceAll(raw, ",", "")

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	v *= mult
	return &v
}

func asFraction(percent *float64) *float64 {
	if percent == nil {
		return nil
	}
	f := *percent / 100
	return &f
}

// recommendationText maps the finviz 1.0-5.0 consensus number to a label.
func recommendationText(score *float64) string {
	if score == nil || *score <= 0 {
		return "Hold"
	}
	switch {
	case *score <= 1.5:
		return "Strong Buy"
	case *score <= 2.5:
		return "Buy"
	case *score > 3.5:
		return "Sell"
	default:
		return "Hold"
	}
}
