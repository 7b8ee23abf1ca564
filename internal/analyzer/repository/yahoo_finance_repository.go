package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"
	"golang-ticker-analyzer/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// YahooFinanceRepository fetches market data from the Yahoo Finance API.
type YahooFinanceRepository interface {
	GetBars(ctx context.Context, param dto.GetStockDataParam) ([]technicals.Bar, error)
	GetOptionsFlow(ctx context.Context, symbol string) (*scoring.OptionsFlow, error)
}

type yahooFinanceRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	cache          *gocache.Cache
}

// NewYahooFinanceRepository creates a new Yahoo Finance repository with a
// shared request limiter and a short-lived response cache.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) (YahooFinanceRepository, error) {
	if cfg.YahooFinance.MaxRequestPerMinute <= 0 {
		return nil, fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)

	return &yahooFinanceRepository{
		client:         &http.Client{Timeout: 30 * time.Second},
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		cache:          gocache.New(10*time.Minute, 30*time.Minute),
	}, nil
}

func (r *yahooFinanceRepository) GetBars(ctx context.Context, param dto.GetStockDataParam) ([]technicals.Bar, error) {
	cacheKey := fmt.Sprintf("chart:%s:%s:%s", param.Symbol, param.Interval, param.Range)
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]technicals.Bar), nil
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		r.cfg.YahooFinance.BaseURL, param.Symbol, param.Interval, param.Range)

	var chartResp dto.YahooChartResponse
	if err := r.getJSON(ctx, url, &chartResp); err != nil {
		return nil, err
	}
	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %s", param.Symbol, chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 || len(chartResp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no chart data for %s", param.Symbol)
	}

	result := chartResp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]technicals.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := technicals.Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		bar.Open = derefOr(at(quote.Open, i), bar.Close)
		bar.High = derefOr(at(quote.High, i), bar.Close)
		bar.Low = derefOr(at(quote.Low, i), bar.Close)
		bar.Volume = derefOr(at(quote.Volume, i), 0)
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable bars for %s", param.Symbol)
	}

	r.cache.Set(cacheKey, bars, gocache.DefaultExpiration)
	return bars, nil
}

func (r *yahooFinanceRepository) GetOptionsFlow(ctx context.Context, symbol string) (*scoring.OptionsFlow, error) {
	cacheKey := "options:" + symbol
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*scoring.OptionsFlow), nil
	}

	url := fmt.Sprintf("%s/v7/finance/options/%s", r.cfg.YahooFinance.BaseURL, symbol)

	var optResp dto.YahooOptionsResponse
	if err := r.getJSON(ctx, url, &optResp); err != nil {
		return nil, err
	}
	if optResp.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options error for %s: %s", symbol, optResp.OptionChain.Error.Description)
	}
	if len(optResp.OptionChain.Result) == 0 || len(optResp.OptionChain.Result[0].Options) == 0 {
		return nil, fmt.Errorf("no option chain for %s", symbol)
	}

	// Nearest expiry only; far-dated flow says little about the current tape.
	chain := optResp.OptionChain.Result[0].Options[0]
	var callVol, putVol int64
	for _, c := range chain.Calls {
		callVol += c.Volume
	}
	for _, p := range chain.Puts {
		putVol += p.Volume
	}
	if callVol == 0 {
		return nil, fmt.Errorf("no call volume for %s", symbol)
	}

	flow := &scoring.OptionsFlow{
		PutCallRatio: float64(putVol) / float64(callVol),
		CallVolume:   callVol,
		PutVolume:    putVol,
		Expiration:   time.Unix(chain.ExpirationDate, 0).UTC().Format("2006-01-02"),
	}
	r.cache.Set(cacheKey, flow, gocache.DefaultExpiration)
	return flow, nil
}

func (r *yahooFinanceRepository) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for request limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call yahoo finance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from Yahoo Finance",
			logger.IntField("status_code", resp.StatusCode), logger.StringField("url", url))
		return fmt.Errorf("received non-OK response from yahoo finance: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func derefOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
