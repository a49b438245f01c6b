package interfaces

import (
	"context"
	"time"

	"llm-market-analyst/internal/types"
)

type MarketData interface {
	FetchCandles(ctx context.Context, p types.FetchParams) (types.CandleSeries, error)
	FetchOptionChain(ctx context.Context, name string, expiry time.Time) ([]types.OptionQuote, error)
}
