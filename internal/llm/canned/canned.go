package canned

import (
	"context"
	"fmt"

	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/types"
)

// Completer is the fallback used in DRY_RUN mode or when no provider is
// configured: it returns a fixed, well-formed report block so the rest
// of the pipeline can be exercised without a model call.
type Completer struct{}

func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) Complete(ctx context.Context, prompt types.AnalysisPrompt) (string, error) {
	logger.Debug(ctx, "Canned completer called - returning fixed NEUTRAL report", "symbol", prompt.Symbol)
	return fmt.Sprintf(`Trend: NEUTRAL
Confidence: LOW
Support: 0
Resistance: 0
Avg Volume: 0
Volume Trend: STABLE
Summary: Canned response for %s; no model was consulted.`, prompt.Symbol), nil
}
