package common

const (
	RedisStreamTickerAnalyzer = "ticker.analyzer"
	RedisStreamMarketScanner  = "market.scanner"

	RedisStreamGroup    = "analyzer-group"
	RedisStreamConsumer = "analyzer-consumer"

	RedisKeyScannerResults = "market.scanner.results"
)
