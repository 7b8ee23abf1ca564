package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"
	"golang-ticker-analyzer/pkg/common"
	"golang-ticker-analyzer/pkg/logger"
	"golang-ticker-analyzer/pkg/telegram"
	"golang-ticker-analyzer/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// AnalyzerService runs the full ticker analysis pipeline, either directly or
// as a redis stream worker.
type AnalyzerService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Analyze(ctx context.Context, symbol string) (*dto.AnalysisResult, error)
	Enqueue(ctx context.Context, symbol string) error
}

type analyzerService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	yahooFinance repository.YahooFinanceRepository
	finviz       repository.FinvizRepository
	news         repository.NewsRepository
	aiRepo       repository.AIRepository
	cacheRepo    repository.FundamentalsCacheRepository
	telegramBot  telegram.Notifier
}

// NewAnalyzerService creates a new AnalyzerService.
func NewAnalyzerService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	yahooFinance repository.YahooFinanceRepository,
	finviz repository.FinvizRepository,
	news repository.NewsRepository,
	aiRepo repository.AIRepository,
	cacheRepo repository.FundamentalsCacheRepository,
	telegramBot telegram.Notifier) AnalyzerService {
	return &analyzerService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		yahooFinance: yahooFinance,
		finviz:       finviz,
		news:         news,
		aiRepo:       aiRepo,
		cacheRepo:    cacheRepo,
		telegramBot:  telegramBot,
	}
}

func (s *analyzerService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamTickerAnalyzer, ">"},
		Count:    1,
		Block:    2 * time.Second, // short block keeps shutdown responsive
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, err := decodeAnalyzerPayload(message.Values)
	if err != nil {
		s.log.Error("Failed to decode analyzer task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.log.Debug("Processing analyzer task", logger.StringField("symbol", streamData.Symbol))

	result, err := s.Analyze(ctx, streamData.Symbol)
	if err != nil {
		s.log.Error("Failed to analyze ticker", logger.ErrorField(err), logger.Field("message_id", message.ID), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.AckNDel(ctx, common.RedisStreamTickerAnalyzer, message.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete analyzer task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.notify(result)
	s.log.Debug("Analyzer task processed successfully", logger.StringField("symbol", streamData.Symbol), logger.IntField("score", result.Score))
}

// Enqueue puts one analysis task on the analyzer stream.
func (s *analyzerService) Enqueue(ctx context.Context, symbol string) error {
	payload, err := json.Marshal(dto.StreamDataAnalyzer{Symbol: symbol})
	if err != nil {
		return err
	}
	return s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamTickerAnalyzer,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
}

// Analyze runs the whole pipeline for one symbol: market data, fundamentals,
// sector context, indicator panel, AI council, composite score.
func (s *analyzerService) Analyze(ctx context.Context, symbol string) (*dto.AnalysisResult, error) {
	bars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: symbol, Interval: "1d", Range: "6mo"})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	info, err := s.getFundamentals(ctx, symbol)
	if err != nil {
		s.log.Warn("Failed to get fundamentals, continuing with neutral defaults", logger.ErrorField(err), logger.StringField("symbol", symbol))
		info = &dto.CompanyInfo{}
		info.Symbol = symbol
	}

	benchmarkBars := s.benchmarkBars(ctx, info.Sector)
	s.enrichMarketContext(ctx, info)

	panel, err := technicals.Calculate(bars, benchmarkBars)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate indicators for %s: %w", symbol, err)
	}
	sig := panel.Latest()
	risk := technicals.ComputeRiskMetrics(bars)

	// Context providers are best-effort: a missing chain or feed degrades the
	// analysis, it does not fail it.
	options, err := s.yahooFinance.GetOptionsFlow(ctx, symbol)
	if err != nil {
		s.log.Debug("No options flow available", logger.ErrorField(err), logger.StringField("symbol", symbol))
		options = nil
	}
	actions, err := s.finviz.GetAnalystActions(ctx, symbol)
	if err != nil {
		s.log.Debug("No analyst actions available", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	headlines, err := s.news.GetHeadlines(ctx, symbol)
	if err != nil {
		s.log.Debug("No headlines available", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	topStory, err := s.news.GetTopStory(ctx, symbol)
	if err != nil {
		topStory = ""
	}

	price := sig.Close
	if info.CurrentPrice != nil && *info.CurrentPrice > 0 {
		price = *info.CurrentPrice
	}
	upside := 0.0
	if info.TargetMeanPrice != nil && *info.TargetMeanPrice > 0 && price > 0 {
		upside = (*info.TargetMeanPrice/price - 1) * 100
	}

	verdict, err := s.aiRepo.CouncilVerdict(ctx, symbol, headlines, topStory, buildTechContext(price, upside, sig, info, options))
	if err != nil {
		s.log.Warn("AI council failed, falling back to neutral sentiment", logger.ErrorField(err), logger.StringField("symbol", symbol))
		verdict = &dto.AICouncilVerdict{
			SentimentScore:    50,
			Summary:           "AI analysis failed.",
			RecommendedAction: "Maintain current position and re-analyze later.",
		}
	}

	score, breakdown := scoring.Score(sig, info.Fundamentals, verdict.SentimentScore, options, actions)
	hfScore, hfVerdict := scoring.HedgeFundScore(info.Fundamentals, risk)

	return &dto.AnalysisResult{
		Ticker:         symbol,
		Price:          price,
		Score:          score,
		ScoreBreakdown: breakdown,
		HedgeFund: dto.HedgeFund{
			Score:   hfScore,
			Verdict: hfVerdict,
			Data:    risk,
		},
		Metrics: dto.RiskSummary{
			Upside:   upside,
			Sharpe:   risk.Sharpe,
			Drawdown: risk.MaxDrawdown,
		},
		Signals:        sig,
		Info:           *info,
		AIAnalysis:     verdict,
		News:           headlines,
		AnalystActions: actions,
		OptionsData:    options,
	}, nil
}

// getFundamentals prefers the database cache and falls through to finviz.
func (s *analyzerService) getFundamentals(ctx context.Context, symbol string) (*dto.CompanyInfo, error) {
	cached, err := s.cacheRepo.Get(ctx, symbol, s.cfg.Analyzer.FundamentalsCacheTTL)
	if err != nil {
		s.log.Warn("Failed to read fundamentals cache", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}
	if cached != nil {
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

// benchmarkBars fetches the sector ETF series used for relative strength.
func (s *analyzerService) benchmarkBars(ctx context.Context, sector string) []technicals.Bar {
	etf := repository.SectorBenchmarkSymbol(sector)
	bars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: etf, Interval: "1d", Range: "6mo"})
	if err != nil {
		s.log.Warn("Failed to get benchmark bars", logger.ErrorField(err), logger.StringField("etf", etf))
		return nil
	}
	return bars
}

// enrichMarketContext fills the scorer inputs no single provider carries:
// VIX level, sector rotation phase and news velocity.
func (s *analyzerService) enrichMarketContext(ctx context.Context, info *dto.CompanyInfo) {
	if vixBars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: "^VIX", Interval: "1d", Range: "5d"}); err == nil && len(vixBars) > 0 {
		info.VIXLevel = utils.ToPointer(vixBars[len(vixBars)-1].Close)
	}

	info.SectorRotation = s.sectorRotation(ctx, info.Sector)

	if velocity, err := s.news.NewsVelocity(ctx, info.Symbol); err == nil {
		info.NewsVelocity = utils.ToPointer(velocity)
	}
}

// sectorRotation classifies the sector ETF's trailing quarter against the
// broad market.
func (s *analyzerService) sectorRotation(ctx context.Context, sector string) string {
	etf := repository.SectorBenchmarkSymbol(sector)
	if etf == "SPY" {
		return "Neutral"
	}

	sectorBars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: etf, Interval: "1d", Range: "6mo"})
	if err != nil {
		return "Neutral"
	}
	marketBars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: "SPY", Interval: "1d", Range: "6mo"})
	if err != nil {
		return "Neutral"
	}

	diff := trailingQuarterReturn(sectorBars) - trailingQuarterReturn(marketBars)
	switch {
	case diff > 0.02:
		return "Leading"
	case diff > 0:
		return "Improving"
	case diff < -0.02:
		return "Lagging"
	default:
		return "Neutral"
	}
}

func trailingQuarterReturn(bars []technicals.Bar) float64 {
	const quarter = 63
	n := len(bars)
	if n < 2 {
		return 0
	}
	lag := quarter
	if lag > n-1 {
		lag = n - 1
	}
	base := bars[n-1-lag].Close
	if base == 0 {
		return 0
	}
	return bars[n-1].Close/base - 1
}

func buildTechContext(price, upside float64, sig technicals.Snapshot, info *dto.CompanyInfo, options *scoring.OptionsFlow) dto.TechContext {
	pcr := "N/A"
	if options != nil {
		pcr = fmt.Sprintf("%.2f", options.PutCallRatio)
	}
	s1, r1 := "N/A", "N/A"
	if sig.S1.Valid {
		s1 = fmt.Sprintf("%.2f", sig.S1.Value)
	}
	if sig.R1.Valid {
		r1 = fmt.Sprintf("%.2f", sig.R1.Value)
	}

	return dto.TechContext{
		Price:      price,
		RSI:        sig.RSI,
		ADX:        sig.ADX,
		PutCall:    pcr,
		Consensus:  info.Recommendation,
		Upside:     upside,
		S1:         s1,
		R1:         r1,
		SMA50:      sig.SMA50,
		SMA200:     sig.SMA200,
		BBLower:    sig.BBLower,
		BBUpper:    sig.BBUpper,
		VWAPWeekly: sig.VWAPWeekly,
	}
}

func (s *analyzerService) notify(result *dto.AnalysisResult) {
	if s.telegramBot == nil {
		return
	}
	if err := s.telegramBot.SendMessage(telegram.FormatAnalysisMessage(result)); err != nil {
		s.log.Error("Failed to send telegram message", logger.ErrorField(err), logger.StringField("symbol", result.Ticker))
	}
}

func (s *analyzerService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge analyzer task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete analyzer task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	return nil
}

func (s *analyzerService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamTickerAnalyzer,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Analyzer.RedisStreamAnalyzerMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim analyzer task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamTickerAnalyzer,
		Group:  common.RedisStreamGroup,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exists on xautoclaim",
			logger.StringField("stream", common.RedisStreamTickerAnalyzer),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	streamData, err := decodeAnalyzerPayload(msg.Values)
	if err != nil {
		s.log.Error("Failed to decode analyzer task on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.Analyzer.RedisStreamAnalyzerMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamTickerAnalyzer),
			logger.StringField("message_id", msg.ID),
			logger.StringField("symbol", streamData.Symbol),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.Analyzer.RedisStreamAnalyzerMaxRetry),
		)
		if s.telegramBot != nil {
			alert := telegram.FormatErrorAlertMessage(time.Now(), "Ticker Analyzer", "task retry count exceeded", streamData.Symbol)
			if err := s.telegramBot.SendMessage(alert); err != nil {
				s.log.Error("Failed to send retry-exceeded alert", logger.ErrorField(err), logger.StringField("symbol", streamData.Symbol))
			}
		}
		if err := s.AckNDel(ctx, common.RedisStreamTickerAnalyzer, msg.ID); err != nil {
			s.log.Error("Failed to acknowledge and delete analyzer task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		}
		return
	}

	result, err := s.Analyze(ctx, streamData.Symbol)
	if err != nil {
		s.log.Error("Failed to analyze ticker on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.AckNDel(ctx, common.RedisStreamTickerAnalyzer, msg.ID); err != nil {
		return
	}
	s.notify(result)
}

func decodeAnalyzerPayload(values map[string]interface{}) (*dto.StreamDataAnalyzer, error) {
	taskData, ok := values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("field 'payload' not found or not a string in stream message")
	}
	var streamData dto.StreamDataAnalyzer
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
	}
	return &streamData, nil
}
