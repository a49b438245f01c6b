// Package llm holds what the completion clients share: per-provider
// options, the service error type and the bounded retry policy.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"llm-market-analyst/internal/store"
)

// ServiceError reports an application-level rejection from the model
// service (refusal, malformed request, quota). Not retried unless the
// status marks a transient server fault.
type ServiceError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s completion failed (http %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Options are the knobs every completion client takes from config.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
}

func OptionsFromConfig(cfg *store.Config) Options {
	return Options{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLMTimeout(),
		MaxRetries:  cfg.LLM.MaxRetries,
		Backoff:     cfg.LLMBackoff(),
	}
}

// Retryable reports whether a completion attempt may be resent: only
// transport failures and transient server statuses qualify. The model's
// own refusals (4xx) are fatal.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*ServiceError); ok {
		return se.StatusCode >= http.StatusInternalServerError || se.StatusCode == http.StatusTooManyRequests
	}
	// Anything that never produced a service response is transport-level.
	return true
}

// WithRetry runs attempt up to opts.MaxRetries+1 times with linear
// backoff, resending the identical request each time.
func WithRetry(ctx context.Context, opts Options, attempt func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for i := 0; i <= opts.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(opts.Backoff * time.Duration(i)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := attempt(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		if !Retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}
