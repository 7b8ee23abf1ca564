package service

import (
	"context"
	"fmt"
	"strings"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/backtest"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/pkg/logger"
)

// BacktestService fetches the history for a ticker and replays the scoring
// strategy over it.
type BacktestService interface {
	Run(ctx context.Context, req dto.BacktestRequest) (*backtest.Result, error)
}

type backtestService struct {
	cfg          *config.Config
	log          *logger.Logger
	yahooFinance repository.YahooFinanceRepository
	finviz       repository.FinvizRepository
	cacheRepo    repository.FundamentalsCacheRepository
}

// NewBacktestService creates a new BacktestService.
func NewBacktestService(cfg *config.Config, log *logger.Logger,
	yahooFinance repository.YahooFinanceRepository,
	finviz repository.FinvizRepository,
	cacheRepo repository.FundamentalsCacheRepository) BacktestService {
	return &backtestService{
		cfg:          cfg,
		log:          log,
		yahooFinance: yahooFinance,
		finviz:       finviz,
		cacheRepo:    cacheRepo,
	}
}

// Run simulates the strategy over the requested range. Fundamentals are held
// static at their current values, and sentiment stays at its neutral default
// since historical news is not replayable.
func (s *backtestService) Run(ctx context.Context, req dto.BacktestRequest) (*backtest.Result, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if symbol == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	dataRange := req.Range
	if dataRange == "" {
		dataRange = "1y"
	}

	bars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: symbol, Interval: "1d", Range: dataRange})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	fundamentals := scoring.Fundamentals{Symbol: symbol}
	if info, err := s.getFundamentals(ctx, symbol); err != nil {
		s.log.Warn("Backtesting without fundamentals", logger.ErrorField(err), logger.StringField("symbol", symbol))
	} else {
		fundamentals = info.Fundamentals
	}

	result, err := backtest.Run(symbol, bars, fundamentals, backtest.Options{})
	if err != nil {
		return nil, err
	}

	s.log.Info("Backtest completed",
		logger.StringField("symbol", symbol),
		logger.IntField("trades", result.TradeCount),
		logger.Field("total_return", result.TotalReturn),
	)
	return result, nil
}

func (s *backtestService) getFundamentals(ctx context.Context, symbol string) (*dto.CompanyInfo, error) {
	cached, err := s.cacheRepo.Get(ctx, symbol, s.cfg.Analyzer.FundamentalsCacheTTL)
	if err == nil && cached != nil {
		return cached, nil
	}

	info, err := s.finviz.GetFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepo.Put(ctx, symbol, info); err != nil {
		s.log.Warn("Failed to store fundamentals cache", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	return info, nil
}
