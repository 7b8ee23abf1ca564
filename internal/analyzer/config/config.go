package config

import (
	"time"

	"golang-ticker-analyzer/pkg/config"
)

// Analyzer holds analyzer-specific configuration.
type Analyzer struct {
	// Ticker analysis stream
	RedisStreamAnalyzerTimeout         time.Duration `mapstructure:"redis_stream_analyzer_timeout"`
	RedisStreamAnalyzerRetryInterval   time.Duration `mapstructure:"redis_stream_analyzer_retry_interval"`
	RedisStreamAnalyzerMaxIdleDuration time.Duration `mapstructure:"redis_stream_analyzer_max_idle_duration"`
	RedisStreamAnalyzerMaxRetry        int           `mapstructure:"redis_stream_analyzer_max_retry"`

	// Market scanner stream
	RedisStreamScannerTimeout         time.Duration `mapstructure:"redis_stream_scanner_timeout"`
	RedisStreamScannerRetryInterval   time.Duration `mapstructure:"redis_stream_scanner_retry_interval"`
	RedisStreamScannerMaxIdleDuration time.Duration `mapstructure:"redis_stream_scanner_max_idle_duration"`
	RedisStreamScannerMaxRetry        int           `mapstructure:"redis_stream_scanner_max_retry"`

	// Daily scan schedule, standard 5-field cron expression.
	ScanCron string `mapstructure:"scan_cron"`

	FundamentalsCacheTTL time.Duration `mapstructure:"fundamentals_cache_ttl"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// YahooFinance holds the configuration for the Yahoo Finance API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Finviz holds the configuration for the finviz scraper.
type Finviz struct {
	BaseURL string `mapstructure:"base_url"`
}

// News holds the configuration for news feeds.
type News struct {
	RSSURL       string `mapstructure:"rss_url"`
	MaxHeadlines int    `mapstructure:"max_headlines"`
}

// Config holds the full configuration for the analyzer service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Analyzer     Analyzer        `mapstructure:"analyzer"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Telegram     Telegram        `mapstructure:"telegram"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Finviz       Finviz          `mapstructure:"finviz"`
	News         News            `mapstructure:"news"`
}

// Load loads the analyzer configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
