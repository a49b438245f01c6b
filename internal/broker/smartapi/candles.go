package smartapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

// DefaultWindowDays is the trailing window used when the caller leaves
// the date range unset.
const DefaultWindowDays = 30

type candleRequest struct {
	Exchange    string `json:"exchange"`
	SymbolToken string `json:"symboltoken"`
	Interval    string `json:"interval"`
	FromDate    string `json:"fromdate"`
	ToDate      string `json:"todate"`
}

// FetchCandles retrieves the OHLCV series for one instrument. Local
// validation runs before any network call; an empty or malformed
// response surfaces as NoDataError, never as an empty series.
func (c *Client) FetchCandles(ctx context.Context, p types.FetchParams) (types.CandleSeries, error) {
	ctx, span := trace.StartSpan(ctx, "smartapi.FetchCandles")
	defer span.End()

	if p.SymbolToken == "" {
		return nil, fmt.Errorf("fetch candles: symbol token required")
	}
	if !types.ValidInterval(p.Interval) {
		return nil, fmt.Errorf("fetch candles: unsupported interval %q", p.Interval)
	}
	if p.From.IsZero() && p.To.IsZero() {
		p.To = time.Now()
		p.From = p.To.AddDate(0, 0, -DefaultWindowDays)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("fetch candles: from date %s is after to date %s",
			p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	}

	resp, err := c.postSecure(ctx, candleDataPath, candleRequest{
		Exchange:    p.Exchange,
		SymbolToken: p.SymbolToken,
		Interval:    p.Interval,
		FromDate:    formatWindow(p.From, p.Interval, "09:15"),
		ToDate:      formatWindow(p.To, p.Interval, "15:30"),
	})
	if err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, &NoDataError{SymbolToken: p.SymbolToken, Exchange: p.Exchange, Message: resp.Message}
	}

	series, err := parseCandleRows(resp.Data)
	if err != nil {
		return nil, &NoDataError{SymbolToken: p.SymbolToken, Exchange: p.Exchange, Message: err.Error()}
	}
	if len(series) == 0 {
		return nil, &NoDataError{SymbolToken: p.SymbolToken, Exchange: p.Exchange,
			Message: "empty candle list; token may be wrong or market closed for the range"}
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })

	logger.Debug(ctx, "Candles fetched",
		"token", p.SymbolToken,
		"exchange", p.Exchange,
		"interval", p.Interval,
		"count", len(series),
	)
	return series, nil
}

// Daily requests are pinned to market hours, the way the upstream API
// expects them; intraday requests keep their full timestamps.
func formatWindow(t time.Time, interval, marketClock string) string {
	if interval == types.IntervalOneDay {
		return t.Format("2006-01-02") + " " + marketClock
	}
	return t.Format("2006-01-02 15:04")
}

// Rows arrive as [timestamp, open, high, low, close, volume] arrays.
func parseCandleRows(data json.RawMessage) (types.CandleSeries, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("malformed candle payload: %w", err)
	}

	series := make(types.CandleSeries, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("candle row %d has %d fields, want 6", i, len(row))
		}

		var ts string
		if err := json.Unmarshal(row[0], &ts); err != nil {
			return nil, fmt.Errorf("candle row %d: bad timestamp: %w", i, err)
		}
		date, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("candle row %d: bad timestamp %q: %w", i, ts, err)
		}

		var ohlc [4]float64
		for j := 0; j < 4; j++ {
			if err := json.Unmarshal(row[j+1], &ohlc[j]); err != nil {
				return nil, fmt.Errorf("candle row %d: bad price field %d: %w", i, j+1, err)
			}
		}
		var vol float64
		if err := json.Unmarshal(row[5], &vol); err != nil {
			return nil, fmt.Errorf("candle row %d: bad volume: %w", i, err)
		}

		series = append(series, types.Candle{
			Date:   date,
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: int64(vol),
		})
	}
	return series, nil
}
