package engineobs

import (
	"context"
	"time"

	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{engine: eng}
}

func (oe *observableEngine) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Analyze")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting analysis",
		"symbol", req.Symbol,
		"token", req.SymbolToken,
		"include_options", req.IncludeOptions,
	)

	rep, err := oe.engine.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis failed", err,
			"symbol", req.Symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Analysis completed",
		"symbol", rep.Symbol,
		"trend", rep.Trend,
		"confidence", rep.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}
