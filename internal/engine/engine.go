// Package engine runs one analysis end to end: session, candle fetch,
// optional options snapshot, prompt build, model completion, parse.
package engine

import (
	"context"
	"fmt"
	"time"

	"llm-market-analyst/internal/analysis"
	"llm-market-analyst/internal/broker/smartapi"
	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/reportlog"
	"llm-market-analyst/internal/store"
	"llm-market-analyst/internal/types"
)

type Engine struct {
	cfg *store.Config
	md  interfaces.MarketData
	llm interfaces.Completer
	now func() time.Time
}

var _ interfaces.Engine = (*Engine)(nil)

func New(cfg *store.Config, md interfaces.MarketData, completer interfaces.Completer) *Engine {
	return &Engine{cfg: cfg, md: md, llm: completer, now: time.Now}
}

// Analyze produces a validated report for one symbol, or an error
// carrying the failing stage. Never a partial report.
func (e *Engine) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	e.applyDefaults(&req)

	to := e.now()
	from := to.AddDate(0, 0, -req.Days)

	series, err := e.md.FetchCandles(ctx, types.FetchParams{
		SymbolToken: req.SymbolToken,
		Exchange:    req.Exchange,
		Interval:    req.Interval,
		From:        from,
		To:          to,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: fetch candles: %w", req.Symbol, err)
	}

	var quotes []types.OptionQuote
	if req.IncludeOptions {
		expiry := smartapi.NextMonthlyExpiry(e.now())
		chain, err := e.md.FetchOptionChain(ctx, req.Symbol, expiry)
		if err != nil {
			return nil, fmt.Errorf("%s: fetch option chain: %w", req.Symbol, err)
		}
		quotes = analysis.NearTheMoney(chain, series.Latest().Close, e.cfg.Analysis.StrikeWindowPct)
		logger.Debug(ctx, "Option chain scoped to near-the-money strikes",
			"symbol", req.Symbol,
			"total", len(chain),
			"selected", len(quotes),
		)
	}

	prompt, err := analysis.BuildPrompt(req.Symbol, series, quotes)
	if err != nil {
		return nil, fmt.Errorf("%s: build prompt: %w", req.Symbol, err)
	}

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: model completion: %w", req.Symbol, err)
	}

	rep, err := analysis.Parse(raw, req.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: parse response: %w", req.Symbol, err)
	}
	rep.GeneratedAt = e.now().Unix()

	logger.Report(ctx, rep, "interval", req.Interval, "candles", len(series))
	_ = reportlog.Append(reportlog.Entry{
		Report:   rep,
		Interval: req.Interval,
		Exchange: req.Exchange,
	})

	return rep, nil
}

func (e *Engine) applyDefaults(req *types.AnalysisRequest) {
	if req.Symbol == "" {
		req.Symbol = e.cfg.Market.Symbol
	}
	if req.SymbolToken == "" {
		req.SymbolToken = e.cfg.Market.SymbolToken
	}
	if req.Exchange == "" {
		req.Exchange = e.cfg.Market.Exchange
	}
	if req.Interval == "" {
		req.Interval = e.cfg.Market.Interval
	}
	if req.Days <= 0 {
		req.Days = e.cfg.Market.Days
	}
}
