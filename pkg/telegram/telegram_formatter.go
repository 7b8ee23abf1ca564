package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-ticker-analyzer/internal/analyzer/dto"
	"golang-ticker-analyzer/internal/backtest"
	"golang-ticker-analyzer/pkg/utils"
)

// FormatAnalysisMessage formats a completed ticker analysis into a Markdown
// message for Telegram.
func FormatAnalysisMessage(analysis *dto.AnalysisResult) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 **Analysis for %s**\n", analysis.Ticker))
	sb.WriteString(fmt.Sprintf("💰 Price: $%.2f\n", analysis.Price))
	sb.WriteString(fmt.Sprintf("🎯 Composite Score: **%d/100** %s\n\n", analysis.Score, scoreIcon(analysis.Score)))

	sb.WriteString("🔧 **Score Breakdown:**\n")
	sb.WriteString(fmt.Sprintf("• Technical: %d\n", analysis.ScoreBreakdown.Technical))
	sb.WriteString(fmt.Sprintf("• Momentum: %d\n", analysis.ScoreBreakdown.Momentum))
	sb.WriteString(fmt.Sprintf("• Smart Money: %d\n", analysis.ScoreBreakdown.SmartMoney))
	sb.WriteString(fmt.Sprintf("• Quality: %d\n", analysis.ScoreBreakdown.Quality))
	sb.WriteString(fmt.Sprintf("• Edge: %d\n", analysis.ScoreBreakdown.Edge))
	sb.WriteString(fmt.Sprintf("• AI Sentiment: %d\n\n", analysis.ScoreBreakdown.AISentiment))

	sb.WriteString("🏦 **Hedge Fund View:**\n")
	sb.WriteString(fmt.Sprintf("• Verdict: %s (%d/100)\n", analysis.HedgeFund.Verdict, analysis.HedgeFund.Score))
	sb.WriteString(fmt.Sprintf("• Sharpe: %.2f | Max Drawdown: %.1f%%\n", analysis.Metrics.Sharpe, analysis.Metrics.Drawdown*100))
	if analysis.Metrics.Upside != 0 {
		sb.WriteString(fmt.Sprintf("• Analyst Upside: %.1f%%\n", analysis.Metrics.Upside))
	}
	sb.WriteString("\n")

	sb.WriteString("📈 **Key Signals:**\n")
	sb.WriteString(fmt.Sprintf("• RSI: %.1f | ADX: %.1f\n", analysis.Signals.RSI, analysis.Signals.ADX))
	sb.WriteString(fmt.Sprintf("• SMA50: $%.2f | SMA200: $%.2f\n", analysis.Signals.SMA50, analysis.Signals.SMA200))
	if analysis.Signals.SqueezeOn {
		sb.WriteString("• 🔥 Volatility squeeze active\n")
	}
	if analysis.Signals.MACDDivergence {
		sb.WriteString("• 🔄 Bullish MACD divergence\n")
	}
	if analysis.Signals.DoubleBottom {
		sb.WriteString("• 🇼 Double bottom breakout\n")
	}
	if analysis.Signals.CupHandle {
		sb.WriteString("• ☕ Cup and handle forming\n")
	}
	sb.WriteString("\n")

	if analysis.AIAnalysis != nil {
		sb.WriteString("🧠 **AI Council:**\n")
		sb.WriteString(fmt.Sprintf("• Sentiment: %d/100\n", analysis.AIAnalysis.SentimentScore))
		if analysis.AIAnalysis.Summary != "" {
			sb.WriteString(fmt.Sprintf("• %s\n", analysis.AIAnalysis.Summary))
		}
		if analysis.AIAnalysis.RecommendedAction != "" {
			sb.WriteString(fmt.Sprintf("💡 *Action:* %s\n", analysis.AIAnalysis.RecommendedAction))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("📅 _Analyzed: %s_\n", utils.PrettyDate(utils.TimeNowEastern())))

	return sb.String()
}

// FormatBacktestMessage formats a simulation result into a Markdown message
// for Telegram.
func FormatBacktestMessage(result *backtest.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🧪 **Backtest: %s**\n\n", result.Ticker))
	sb.WriteString(fmt.Sprintf("📈 Strategy Return: %.2f%%\n", result.TotalReturn))
	sb.WriteString(fmt.Sprintf("🛒 Buy & Hold: %.2f%%\n", result.BuyHoldReturn))

	vsIcon := "🟢"
	if result.PerformanceVsMarket < 0 {
		vsIcon = "🔴"
	}
	sb.WriteString(fmt.Sprintf("%s vs Market: %+.2f%%\n\n", vsIcon, result.PerformanceVsMarket))

	sb.WriteString(fmt.Sprintf("🔁 Trades: %d | Win Rate: %.0f%%\n", result.TradeCount, result.WinRate))
	for i, trade := range result.Trades {
		if i >= 5 {
			sb.WriteString(fmt.Sprintf("_... and %d more trades_\n", len(result.Trades)-5))
			break
		}
		sb.WriteString(fmt.Sprintf("• %s → %s: %+.1f%% (%s)\n",
			trade.EntryDate.Format("2006-01-02"),
			trade.ExitDate.Format("2006-01-02"),
			trade.Return*100,
			trade.ExitReason))
	}

	return sb.String()
}

// FormatScanMessage formats the top market scanner hits into a Markdown
// message for Telegram.
func FormatScanMessage(results []dto.ScanResult) string {
	if len(results) == 0 {
		return "🔍 *Market Scan*\n\nNo tickers matched today's scan."
	}

	var sb strings.Builder
	sb.WriteString("🔍 **Market Scan Results**\n\n")

	const maxRows = 15
	for i, r := range results {
		if i >= maxRows {
			sb.WriteString(fmt.Sprintf("_... and %d more_\n", len(results)-maxRows))
			break
		}
		sb.WriteString(fmt.Sprintf("📈 `%s` $%.2f | RSI %.0f | RelVol %.1fx | %s",
			r.Ticker, r.Price, r.RSI, r.RelVolume, r.Recommendation))
		if r.UpsidePercent != 0 {
			sb.WriteString(fmt.Sprintf(" | Upside %.0f%%", r.UpsidePercent))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatErrorAlertMessage formats an operational error alert.
func FormatErrorAlertMessage(t time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(t), errType, errMsg, data)
}

func scoreIcon(score int) string {
	switch {
	case score >= 70:
		return "🟢"
	case score >= 50:
		return "🟡"
	default:
		return "🔴"
	}
}
