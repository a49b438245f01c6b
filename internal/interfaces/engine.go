package interfaces

import (
	"context"

	"llm-market-analyst/internal/types"
)

type Engine interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisReport, error)
}
