package brokerobs

import (
	"context"
	"time"

	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

// observableMarketData wraps a MarketData source with observability
// (logging & tracing)
type observableMarketData struct {
	md interfaces.MarketData
}

// Compile-time interface check
var _ interfaces.MarketData = (*observableMarketData)(nil)

// Wrap wraps a market data source with observability middleware
func Wrap(md interfaces.MarketData) interfaces.MarketData {
	return &observableMarketData{md: md}
}

// FetchCandles fetches candles with observability
func (o *observableMarketData) FetchCandles(ctx context.Context, p types.FetchParams) (types.CandleSeries, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.FetchCandles")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching candles",
		"token", p.SymbolToken,
		"exchange", p.Exchange,
		"interval", p.Interval,
	)

	series, err := o.md.FetchCandles(ctx, p)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candles", err,
			"token", p.SymbolToken,
			"exchange", p.Exchange,
		)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Candles fetched successfully",
		"token", p.SymbolToken,
		"count", len(series),
	)
	return series, nil
}

// FetchOptionChain fetches the option chain with observability
func (o *observableMarketData) FetchOptionChain(ctx context.Context, name string, expiry time.Time) ([]types.OptionQuote, error) {
	ctx, span := trace.StartSpan(ctx, "marketdata.FetchOptionChain")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching option chain",
		"name", name,
		"expiry", expiry.Format("2006-01-02"),
	)

	quotes, err := o.md.FetchOptionChain(ctx, name, expiry)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch option chain", err, "name", name)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Option chain fetched successfully",
		"name", name,
		"strikes", len(quotes),
	)
	return quotes, nil
}
