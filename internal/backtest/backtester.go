// Package backtest replays the indicator + scoring pipeline over history with
// a long-only position state machine and reports the resulting trades against
// buy-and-hold. Sentiment and options flow are not retroactively knowable, so
// the simulation substitutes a caller-supplied neutral sentiment constant and
// no options data.
package backtest

import (
	"errors"
	"math"
	"time"

	"golang-ticker-analyzer/internal/scoring"
	"golang-ticker-analyzer/internal/technicals"
)

// ErrInsufficientData is returned when the series is too short to simulate.
// It is the only failure the simulator surfaces; everything else degrades to
// documented neutral behavior.
var ErrInsufficientData = errors.New("backtest: insufficient historical data")

const (
	minBars = 50

	buyThreshold     = 60
	sellScoreTrigger = 40
	overboughtRSI    = 70
	parabolicRSI     = 80
	stopLossFactor   = 0.90

	// Trading decisions start after SMA-200 has had room to stabilize; short
	// histories fall back to a 30-bar warm-up.
	warmupLong      = 200
	warmupShort     = 30
	longSeriesBars  = 250
)

// Exit reasons recorded on completed trades.
const (
	ReasonTrendBreak = "Trend Break"
	ReasonParabolic  = "Parabolic"
	ReasonStopLoss   = "Stop Loss"
	ReasonOpen       = "Open"
)

// Trade is one completed round trip. A position still held at the end of the
// series is force-closed on the final bar and recorded with reason "Open".
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Return     float64   `json:"return"`
	ExitReason string    `json:"exit_reason"`
}

// Result summarizes a simulation. Return figures are percentages.
type Result struct {
	Ticker              string  `json:"ticker"`
	TotalReturn         float64 `json:"total_beast_return"`
	BuyHoldReturn       float64 `json:"buy_hold_return"`
	WinRate             float64 `json:"win_rate"`
	TradeCount          int     `json:"trade_count"`
	PerformanceVsMarket float64 `json:"performance_vs_market"`
	Trades              []Trade `json:"trades"`
}

// Options tunes a simulation run.
type Options struct {
	// Sentiment stands in for the AI sentiment score on every historical bar.
	// Zero means the neutral default of 50.
	Sentiment int
}

// Run simulates the strategy for ticker over bars with static fundamentals.
// It requires at least 50 bars and otherwise computes deterministically with
// no side effects.
func Run(ticker string, bars []technicals.Bar, fundamentals scoring.Fundamentals, opts Options) (*Result, error) {
	if len(bars) < minBars {
		return nil, ErrInsufficientData
	}

	sentiment := opts.Sentiment
	if sentiment == 0 {
		sentiment = 50
	}

	panel, err := technicals.Calculate(bars, nil)
	if err != nil {
		return nil, err
	}

	startIdx := warmupShort
	if panel.Len() > longSeriesBars {
		startIdx = warmupLong
	}

	var trades []Trade
	inPosition := false
	var entryPrice float64
	var entryDate time.Time

	for i := startIdx; i < panel.Len(); i++ {
		sig := panel.SnapshotAt(i)
		score, _ := scoring.Score(sig, fundamentals, sentiment, nil, nil)

		price := bars[i].Close
		rsi := panel.RSI[i]
		sma50 := panel.SMA50[i]
		trendRef := panel.SMA200[i]
		if !trendRef.Valid {
			trendRef = sma50
		}

		if !inPosition {
			// Entry: conviction score, price above the long trend line, and
			// not already overbought. An unavailable trend line blocks entry
			// rather than waving it through.
			if score >= buyThreshold && trendRef.Valid && price > trendRef.Value &&
				rsi.Valid && rsi.Value < overboughtRSI {
				inPosition = true
				entryPrice = price
				entryDate = bars[i].Date
			}
			continue
		}

		trendBroken := sma50.Valid && price < sma50.Value
		scoreCollapse := score <= sellScoreTrigger
		parabolic := rsi.Valid && rsi.Value > parabolicRSI
		stopLoss := price < entryPrice*stopLossFactor

		if (scoreCollapse && trendBroken) || parabolic || stopLoss {
			reason := ReasonStopLoss
			switch {
			case scoreCollapse && trendBroken:
				reason = ReasonTrendBreak
			case parabolic:
				reason = ReasonParabolic
			}
			trades = append(trades, Trade{
				EntryDate:  entryDate,
				ExitDate:   bars[i].Date,
				EntryPrice: entryPrice,
				ExitPrice:  price,
				Return:     (price - entryPrice) / entryPrice,
				ExitReason: reason,
			})
			inPosition = false
		}
	}

	if inPosition {
		last := bars[len(bars)-1]
		trades = append(trades, Trade{
			EntryDate:  entryDate,
			ExitDate:   last.Date,
			EntryPrice: entryPrice,
			ExitPrice:  last.Close,
			Return:     (last.Close - entryPrice) / entryPrice,
			ExitReason: ReasonOpen,
		})
	}

	totalReturn := 0.0
	if len(trades) > 0 {
		value := 1.0
		for _, t := range trades {
			value *= 1 + t.Return
		}
		totalReturn = value - 1
	}

	buyHold := (bars[len(bars)-1].Close - bars[startIdx].Close) / bars[startIdx].Close

	winRate := 0.0
	perfDelta := 0.0
	if len(trades) > 0 {
		wins := 0
		for _, t := range trades {
			if t.Return > 0 {
				wins++
			}
		}
		winRate = float64(wins) / float64(len(trades)) * 100
		perfDelta = (totalReturn - buyHold) * 100
	}

	return &Result{
		Ticker:              ticker,
		TotalReturn:         round2(totalReturn * 100),
		BuyHoldReturn:       round2(buyHold * 100),
		WinRate:             round1(winRate),
		TradeCount:          len(trades),
		PerformanceVsMarket: round2(perfDelta),
		Trades:              trades,
	}, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
