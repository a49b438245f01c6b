package llmobs

import (
	"context"

	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

// observableCompleter wraps a Completer with observability (logging & tracing)
type observableCompleter struct {
	completer interfaces.Completer
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{completer: completer}
}

// Complete requests a model completion with observability
func (oc *observableCompleter) Complete(ctx context.Context, prompt types.AnalysisPrompt) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting model completion",
		"symbol", prompt.Symbol,
		"prompt_len", len(prompt.Text),
	)

	raw, err := oc.completer.Complete(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Model completion failed", err, "symbol", prompt.Symbol)
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Model completion received",
		"symbol", prompt.Symbol,
		"response_len", len(raw),
	)
	return raw, nil
}
