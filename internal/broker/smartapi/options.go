package smartapi

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

type optionGreekRequest struct {
	Name       string `json:"name"`
	ExpiryDate string `json:"expirydate"`
}

// The greeks endpoint returns every numeric field as a string.
type optionGreekRow struct {
	TradingSymbol string `json:"tradingSymbol"`
	OptionType    string `json:"optionType"`
	StrikePrice   string `json:"strikePrice"`
	OpenInterest  string `json:"openInterest"`
	IV            string `json:"impliedVolatility"`
	Delta         string `json:"delta"`
	Gamma         string `json:"gamma"`
	Theta         string `json:"theta"`
	Vega          string `json:"vega"`
}

// FetchOptionChain retrieves the per-strike greeks snapshot for an
// underlying at the given expiry. The same auth-retry policy as the
// candle fetch applies.
func (c *Client) FetchOptionChain(ctx context.Context, name string, expiry time.Time) ([]types.OptionQuote, error) {
	ctx, span := trace.StartSpan(ctx, "smartapi.FetchOptionChain")
	defer span.End()

	resp, err := c.postSecure(ctx, optionGreekPath, optionGreekRequest{
		Name:       name,
		ExpiryDate: strings.ToUpper(expiry.Format("02Jan2006")),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, &NoDataError{SymbolToken: name, Message: resp.Message}
	}

	var rows []optionGreekRow
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return nil, &NoDataError{SymbolToken: name, Message: "malformed option chain payload: " + err.Error()}
	}

	quotes := make([]types.OptionQuote, 0, len(rows))
	for _, r := range rows {
		q := types.OptionQuote{
			TradingSymbol: r.TradingSymbol,
			OptionType:    r.OptionType,
			Strike:        parseNum(r.StrikePrice),
			OpenInterest:  int64(parseNum(r.OpenInterest)),
			IV:            parseNum(r.IV),
			Delta:         parseNum(r.Delta),
			Gamma:         parseNum(r.Gamma),
			Theta:         parseNum(r.Theta),
			Vega:          parseNum(r.Vega),
		}
		quotes = append(quotes, q)
	}

	logger.Debug(ctx, "Option chain fetched", "name", name, "strikes", len(quotes))
	return quotes, nil
}

func parseNum(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// NextMonthlyExpiry returns the upcoming monthly options expiry: the
// last Thursday of the current month, or of the next month once that
// has passed.
func NextMonthlyExpiry(now time.Time) time.Time {
	exp := lastThursday(now.Year(), now.Month(), now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if exp.Before(today) {
		next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		exp = lastThursday(next.Year(), next.Month(), now.Location())
	}
	return exp
}

func lastThursday(year int, month time.Month, loc *time.Location) time.Time {
	last := time.Date(year, month, 1, 0, 0, 0, 0, loc).AddDate(0, 1, -1)
	offset := (int(last.Weekday()) - int(time.Thursday) + 7) % 7
	return last.AddDate(0, 0, -offset)
}
