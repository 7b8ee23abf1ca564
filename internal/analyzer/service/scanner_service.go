package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/technicals"
	"golang-ticker-analyzer/pkg/common"
	"golang-ticker-analyzer/pkg/logger"
	"golang-ticker-analyzer/pkg/telegram"
	"golang-ticker-analyzer/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// ScannerService fans the active ticker universe out over a redis stream and
// condenses each symbol into one scan table row.
type ScannerService interface {
	EnqueueScan(ctx context.Context) (*dto.ScanSummary, error)
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	GetResults(ctx context.Context) ([]dto.ScanResult, error)
}

type scannerService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	stocksRepo   repository.StocksRepository
	yahooFinance repository.YahooFinanceRepository
	finviz       repository.FinvizRepository
	cacheRepo    repository.FundamentalsCacheRepository
	telegramBot  telegram.Notifier
}

// NewScannerService creates a new ScannerService.
func NewScannerService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	stocksRepo repository.StocksRepository,
	yahooFinance repository.YahooFinanceRepository,
	finviz repository.FinvizRepository,
	cacheRepo repository.FundamentalsCacheRepository,
	telegramBot telegram.Notifier) ScannerService {
	return &scannerService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		stocksRepo:   stocksRepo,
		yahooFinance: yahooFinance,
		finviz:       finviz,
		cacheRepo:    cacheRepo,
		telegramBot:  telegramBot,
	}
}

// EnqueueScan clears the previous scan table and enqueues one task per active
// stock.
func (s *scannerService) EnqueueScan(ctx context.Context) (*dto.ScanSummary, error) {
	stocks, err := s.stocksRepo.GetActiveStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active stocks: %w", err)
	}

	if err := s.redisClient.Del(ctx, common.RedisKeyScannerResults).Err(); err != nil {
		s.log.Warn("Failed to clear previous scan results", logger.ErrorField(err))
	}

	summary := &dto.ScanSummary{}
	for _, stock := range stocks {
		if !utils.ShouldContinue(ctx, s.log) {
			summary.Skipped = append(summary.Skipped, stock.Symbol)
			continue
		}
		payload, err := json.Marshal(dto.StreamDataScanner{Symbol: stock.Symbol})
		if err != nil {
			summary.Skipped = append(summary.Skipped, stock.Symbol)
			continue
		}
		err = s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamMarketScanner,
			Values: map[string]interface{}{"payload": string(payload)},
		}).Err()
		if err != nil {
			s.log.Error("Failed to enqueue scan task", logger.ErrorField(err), logger.StringField("symbol", stock.Symbol))
			summary.Skipped = append(summary.Skipped, stock.Symbol)
			continue
		}
		summary.Enqueued++
	}

	s.log.Info("Market scan enqueued", logger.IntField("enqueued", summary.Enqueued), logger.IntField("skipped", len(summary.Skipped)))
	return summary, nil
}

func (s *scannerService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamMarketScanner, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from scanner stream", logger.ErrorField(err))
		return
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, err := decodeScannerPayload(message.Values)
	if err != nil {
		s.log.Error("Failed to decode scanner task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	result, err := s.scan(ctx, streamData.Symbol)
	if err != nil {
		s.log.Error("Failed to scan ticker", logger.ErrorField(err), logger.Field("message_id", message.ID), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.storeResult(ctx, result); err != nil {
		s.log.Error("Failed to store scan result", logger.ErrorField(err), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.AckNDel(ctx, common.RedisStreamMarketScanner, message.ID); err != nil {
		return
	}

	s.log.Debug("Scan task processed", logger.StringField("symbol", streamData.Symbol))
}

// scan condenses one symbol into a scan table row: price, RSI, relative
// volume against the trailing 20-day average, consensus recommendation and
// analyst target upside.
func (s *scannerService) scan(ctx context.Context, symbol string) (*dto.ScanResult, error) {
	bars, err := s.yahooFinance.GetBars(ctx, dto.GetStockDataParam{Symbol: symbol, Interval: "1d", Range: "3mo"})
	if err != nil {
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	panel, err := technicals.Calculate(bars, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate indicators for %s: %w", symbol, err)
	}
	sig := panel.Latest()

	result := &dto.ScanResult{
		Ticker:    symbol,
		Price:     sig.Close,
		RSI:       sig.RSI,
		RelVolume: relativeVolume(bars),
	}

	info, err := s.getFundamentals(ctx, symbol)
	if err != nil {
		s.log.Debug("No fundamentals for scan row", logger.ErrorField(err), logger.StringField("symbol", symbol))
		result.Recommendation = "Hold"
		return result, nil
	}

	result.Recommendation = info.Recommendation
	if result.Recommendation == "" {
		result.Recommendation = "Hold"
	}
	if info.MarketCap != nil {
		result.MarketCap = *info.MarketCap
	}
	if info.TargetMeanPrice != nil && result.Price > 0 {
		result.UpsidePercent = (*info.TargetMeanPrice/result.Price - 1) * 100
	}
	return result, nil
}

func (s *scannerService) getFundamentals(ctx context.Context, symbol string) (*dto.CompanyInfo, error) {
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

// relativeVolume compares the last bar's volume to the trailing 20-bar mean,
// excluding the last bar itself.
func relativeVolume(bars []technicals.Bar) float64 {
	n := len(bars)
	if n < 2 {
		return 1
	}
	window := 20
	if window > n-1 {
		window = n - 1
	}
	var sum float64
	for i := n - 1 - window; i < n-1; i++ {
		sum += bars[i].Volume
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 1
	}
	return bars[n-1].Volume / avg
}

func (s *scannerService) storeResult(ctx context.Context, result *dto.ScanResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.redisClient.HSet(ctx, common.RedisKeyScannerResults, result.Ticker, string(payload)).Err()
}

// GetResults returns the current scan table, largest market cap first.
func (s *scannerService) GetResults(ctx context.Context) ([]dto.ScanResult, error) {
	rows, err := s.redisClient.HGetAll(ctx, common.RedisKeyScannerResults).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scan results: %w", err)
	}

	results := make([]dto.ScanResult, 0, len(rows))
	for symbol, raw := range rows {
		var result dto.ScanResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			s.log.Warn("Skipping malformed scan result", logger.ErrorField(err), logger.StringField("symbol", symbol))
			continue
		}
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].MarketCap != results[j].MarketCap {
			return results[i].MarketCap > results[j].MarketCap
		}
		return results[i].Ticker < results[j].Ticker
	})
	return results, nil
}

func (s *scannerService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge scanner task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete scanner task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return err
	}
	return nil
}

func (s *scannerService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamMarketScanner,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Analyzer.RedisStreamScannerMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim scanner task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamMarketScanner,
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
			logger.StringField("stream", common.RedisStreamMarketScanner),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	streamData, err := decodeScannerPayload(msg.Values)
	if err != nil {
		s.log.Error("Failed to decode scanner task on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.Analyzer.RedisStreamScannerMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamMarketScanner),
			logger.StringField("message_id", msg.ID),
			logger.StringField("symbol", streamData.Symbol),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.Analyzer.RedisStreamScannerMaxRetry),
		)
		if s.telegramBot != nil {
			alert := telegram.FormatErrorAlertMessage(time.Now(), "Market Scanner", "task retry count exceeded", streamData.Symbol)
			if err := s.telegramBot.SendMessage(alert); err != nil {
				s.log.Error("Failed to send retry-exceeded alert", logger.ErrorField(err), logger.StringField("symbol", streamData.Symbol))
			}
		}
		if err := s.AckNDel(ctx, common.RedisStreamMarketScanner, msg.ID); err != nil {
			s.log.Error("Failed to acknowledge and delete scanner task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		}
		return
	}

	result, err := s.scan(ctx, streamData.Symbol)
	if err != nil {
		s.log.Error("Failed to scan ticker on retry", logger.ErrorField(err), logger.Field("message_id", msg.ID), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.storeResult(ctx, result); err != nil {
		s.log.Error("Failed to store scan result", logger.ErrorField(err), logger.StringField("symbol", streamData.Symbol))
		return
	}
	if err := s.AckNDel(ctx, common.RedisStreamMarketScanner, msg.ID); err != nil {
		return
	}
}

func decodeScannerPayload(values map[string]interface{}) (*dto.StreamDataScanner, error) {
	taskData, ok := values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("field 'payload' not found or not a string in stream message")
	}
	var streamData dto.StreamDataScanner
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task data: %w", err)
	}
	return &streamData, nil
}
