package repository

import (
	"fmt"
	"strings"

	"golang-ticker-analyzer/internal/analyzer/dto"
)

// BuildCouncilPrompt assembles the strategy-council prompt: hard indicator
// data first, then headlines, then the role-played debate instructions.
func BuildCouncilPrompt(symbol string, headlines []string, topStory string, tech dto.TechContext) string {
	var newsBuilder strings.Builder
	for _, h := range headlines {
		newsBuilder.WriteString(fmt.Sprintf("- %s\n", h))
	}

	storyBlock := ""
	if topStory != "" {
		storyBlock = fmt.Sprintf("\nTOP STORY EXCERPT:\n%s\n", topStory)
	}

	techBlock := fmt.Sprintf(`HARD DATA SNAPSHOT:
- Current Price: %.2f
- RSI (14): %.1f
- Trend Strength (ADX): %.1f
- Put/Call Ratio: %s
- Analyst Consensus: %s
- Implied Upside: %.1f%%

KEY LEVELS (Use these for Entry/Exit/Stop logic):
- Support (S1): %s
- Resistance (R1): %s
- SMA 50: %.2f
- SMA 200: %.2f
- Bollinger Bands: %.2f - %.2f
- Weekly VWAP: %.2f`,
		tech.Price, tech.RSI, tech.ADX, tech.PutCall, tech.Consensus, tech.Upside,
		tech.S1, tech.R1, tech.SMA50, tech.SMA200, tech.BBLower, tech.BBUpper, tech.VWAPWeekly)

	promptTemplate := `You are a Senior Hedge Fund Strategy Committee analyzing %s.
Your goal is to provide a definitive "Action Plan" for a 1-2 month horizon.

%s

RECENT HEADLINES:
%s%s
TASK:
1. 'The Bull': Argue why this stock will outperform. Use markdown bullet points (-).
2. 'The Bear': Identify the "kill-switch" risks. Use markdown bullet points (-).
3. 'The Retail Trader': Gauge the crowd's hype/fear.
4. 'The Chief Strategist': Synthesize ALL data (Hard Stats + News) into a specific recommendation.

STRICT FORMATTING RULES:
- NEVER use the dollar sign symbol ($). Use 'USD' or just the number.
- NEVER use LaTeX or math notation.
- Use plain text with standard markdown bolding (**) for emphasis.
- Keep the "recommended_action" highly readable and structured.

Return ONLY a valid JSON object:
{
    "sentiment_score": (int 0-100),
    "bull_case": "Markdown list of pros starting with - ",
    "bear_case": "Markdown list of risks starting with - ",
    "retail_mood": "Short vibe check.",
    "summary": "Condensed verdict (2-3 sentences).",
    "recommended_action": "DETAILED STRATEGY: Provide a clear, bulleted action plan using markdown (-). Include Entry, Stop Loss, and Take Profit levels. Do not use dollar signs."
}`

	return fmt.Sprintf(promptTemplate, symbol, techBlock, newsBuilder.String(), storyBlock)
}
