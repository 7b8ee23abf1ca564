package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang-ticker-analyzer/internal/analyzer/config"
	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/analyzer/repository"
	"golang-ticker-analyzer/internal/backtest"
	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dataRange  string
	sentiment  int
)

var runCmd = &cobra.Command{
	Use:   "run [ticker]",
	Short: "Simulate the scoring strategy over a ticker's history",
	Args:  cobra.ExactArgs(1),
	Run:   runBacktest,
}

func runBacktest(cmd *cobra.Command, args []string) {
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	yahooFinanceRepo, err := repository.NewYahooFinanceRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Yahoo Finance repository", logger.ErrorField(err))
	}
	finvizRepo := repository.NewFinvizRepository(cfg, appLogger)

	bars, err := yahooFinanceRepo.GetBars(ctx, dto.GetStockDataParam{Symbol: symbol, Interval: "1d", Range: dataRange})
	if err != nil {
		appLogger.Fatal("Failed to get bars", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}

	fundamentals := scoring.Fundamentals{Symbol: symbol}
	if info, err := finvizRepo.GetFundamentals(ctx, symbol); err != nil {
		appLogger.Warn("Backtesting without fundamentals", logger.ErrorField(err), logger.StringField("symbol", symbol))
	} else {
		fundamentals = info.Fundamentals
	}

	result, err := backtest.Run(symbol, bars, fundamentals, backtest.Options{Sentiment: sentiment})
	if err != nil {
		appLogger.Fatal("Backtest failed", logger.ErrorField(err), logger.StringField("symbol", symbol))
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		appLogger.Fatal("Failed to marshal result", logger.ErrorField(err))
	}
	fmt.Println(string(out))
}

func main() {
	rootCmd := &cobra.Command{Use: "backtest"}

	runCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-analyzer.yaml", "Path to the configuration file")
	runCmd.Flags().StringVarP(&dataRange, "range", "r", "1y", "History range to simulate (provider range string)")
	runCmd.Flags().IntVarP(&sentiment, "sentiment", "s", 0, "Static sentiment score for every bar (0 means neutral 50)")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing backtest CLI: %s\n", err)
		os.Exit(1)
	}
}
