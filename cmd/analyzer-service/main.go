package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/delivery/consumer"
	delivery "golang-ticker-analyzer/internal/analyzer/delivery/http"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/analyzer/service"
	"golang-ticker-analyzer/pkg/common"
	"golang-ticker-analyzer/pkg/logger"
	"golang-ticker-analyzer/pkg/postgres"
	"golang-ticker-analyzer/pkg/redis"
	"golang-ticker-analyzer/pkg/telegram"
	"golang-ticker-analyzer/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the analyzer service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Analyzer Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer groups if they don't exist
	// MKSTREAM creates the stream if it doesn't exist
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamTickerAnalyzer, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamMarketScanner, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	stocksRepo := repository.NewStocksRepository(db.DB)
	watchlistRepo := repository.NewWatchlistRepository(db.DB)
	cacheRepo := repository.NewFundamentalsCacheRepository(db.DB)
	finvizRepo := repository.NewFinvizRepository(cfg, appLogger)
	newsRepo := repository.NewNewsRepository(cfg, appLogger)
	yahooFinanceRepo, err := repository.NewYahooFinanceRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Yahoo Finance repository", logger.ErrorField(err))
	}

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
	}
	aiRepo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI repository", logger.ErrorField(err))
	}

	var telegramNotifier telegram.Notifier
	if cfg.Telegram.Enabled {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize services
	analyzerSvc := service.NewAnalyzerService(cfg, appLogger, redisClient.Client, yahooFinanceRepo, finvizRepo, newsRepo, aiRepo, cacheRepo, telegramNotifier)
	scannerSvc := service.NewScannerService(cfg, appLogger, redisClient.Client, stocksRepo, yahooFinanceRepo, finvizRepo, cacheRepo, telegramNotifier)
	backtestSvc := service.NewBacktestService(cfg, appLogger, yahooFinanceRepo, finvizRepo, cacheRepo)
	watchlistSvc := service.NewWatchlistService(watchlistRepo)

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, analyzerSvc, scannerSvc, appLogger)
	redisConsumer.Start(ctx)

	// Schedule the daily market scan
	cronRunner := cron.New()
	if cfg.Analyzer.ScanCron != "" {
		_, err := cronRunner.AddFunc(cfg.Analyzer.ScanCron, func() {
			utils.GoSafe(func() {
				scanCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
				defer cancel()
				if _, err := scannerSvc.EnqueueScan(scanCtx); err != nil {
					appLogger.Error("Scheduled market scan failed", logger.ErrorField(err))
				}
			})
		})
		if err != nil {
			appLogger.Fatal("Invalid scan cron expression", logger.ErrorField(err), logger.StringField("cron", cfg.Analyzer.ScanCron))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	analyzerHandler := delivery.NewAnalyzerHandler(analyzerSvc, appLogger)
	analyzerHandler.RegisterRoutes(apiV1.Group("/analysis"))

	scannerHandler := delivery.NewScannerHandler(scannerSvc, appLogger)
	scannerHandler.RegisterRoutes(apiV1.Group("/scan"))

	backtestHandler := delivery.NewBacktestHandler(backtestSvc, appLogger)
	backtestHandler.RegisterRoutes(apiV1.Group("/backtest"))

	watchlistHandler := delivery.NewWatchlistHandler(watchlistSvc, appLogger)
	watchlistHandler.RegisterRoutes(apiV1.Group("/watchlist"))

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
	}
	redisConsumer.Stop()

	appLogger.Info("Server exiting")
}

func main() {
	rootCmd := &cobra.Command{Use: "analyzer-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-analyzer.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing analyzer-service CLI: %s\n", err)
		os.Exit(1)
	}
}
