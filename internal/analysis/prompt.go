// Package analysis shapes market data into a model prompt with an
// explicit output contract, and parses the model's free-form reply back
// into a validated report.
package analysis

import (
	"fmt"
	"strings"

	"llm-market-analyst/internal/types"
)

// InsufficientDataError reports a candle series that fails the local
// preconditions for prompt building. Raised before any external call.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for analysis: %s", e.Reason)
}

const reportContract = `Respond with a clearly delimited report block in EXACTLY this format:

Trend: <one of BULLISH, BEARISH, NEUTRAL>
Confidence: <one of LOW, MEDIUM, HIGH>
Support: <price as a plain decimal number>
Resistance: <price as a plain decimal number>
Avg Volume: <average daily volume as an integer>
Volume Trend: <one of INCREASING, DECREASING, STABLE>
Summary: <2-3 sentence assessment on one line>

Support must not exceed Resistance. Do not add fields or change the labels.`

// BuildPrompt serializes the full series (every candle, no sampling)
// plus an optional options-chain snapshot, and appends the output
// contract. Fails fast with InsufficientDataError when the series is
// empty, unordered or carries duplicate dates.
func BuildPrompt(symbol string, series types.CandleSeries, quotes []types.OptionQuote) (types.AnalysisPrompt, error) {
	if err := validateSeries(series); err != nil {
		return types.AnalysisPrompt{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an experienced equity market analyst. Analyze the recent price action for %s.\n\n", symbol)
	fmt.Fprintf(&b, "OHLCV candles, oldest first (%d rows):\n", len(series))
	b.WriteString("Date       | Open    | High    | Low     | Close   | Volume\n")
	for _, c := range series {
		fmt.Fprintf(&b, "%s | %.2f | %.2f | %.2f | %.2f | %d\n",
			c.Date.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	if len(quotes) > 0 {
		fmt.Fprintf(&b, "\nNear-the-money options chain (%d strikes):\n", len(quotes))
		b.WriteString("Strike   | Type | OI        | IV     | Delta   | Gamma   | Theta   | Vega\n")
		for _, q := range quotes {
			fmt.Fprintf(&b, "%.2f | %s   | %d | %.2f | %.4f | %.4f | %.4f | %.4f\n",
				q.Strike, q.OptionType, q.OpenInterest, q.IV, q.Delta, q.Gamma, q.Theta, q.Vega)
		}
	}

	b.WriteString("\n")
	b.WriteString(reportContract)

	return types.AnalysisPrompt{Symbol: symbol, Text: b.String()}, nil
}

func validateSeries(series types.CandleSeries) error {
	if len(series) == 0 {
		return &InsufficientDataError{Reason: "empty candle series"}
	}
	for i := 1; i < len(series); i++ {
		if series[i].Date.Equal(series[i-1].Date) {
			return &InsufficientDataError{
				Reason: fmt.Sprintf("duplicate candle date %s", series[i].Date.Format("2006-01-02")),
			}
		}
		if series[i].Date.Before(series[i-1].Date) {
			return &InsufficientDataError{
				Reason: fmt.Sprintf("candles out of chronological order at index %d", i),
			}
		}
	}
	return nil
}

// NearTheMoney filters an options chain down to strikes within
// windowPct percent of the spot price.
func NearTheMoney(quotes []types.OptionQuote, spot, windowPct float64) []types.OptionQuote {
	if spot <= 0 || windowPct <= 0 {
		return nil
	}
	band := spot * windowPct / 100
	out := make([]types.OptionQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Strike >= spot-band && q.Strike <= spot+band {
			out = append(out, q)
		}
	}
	return out
}
