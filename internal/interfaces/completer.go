package interfaces

import (
	"context"

	"llm-market-analyst/internal/types"
)

type Completer interface {
	Complete(ctx context.Context, prompt types.AnalysisPrompt) (string, error)
}
