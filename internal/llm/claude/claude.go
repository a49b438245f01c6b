package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"llm-market-analyst/internal/llm"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

// Completer sends analysis prompts to the Anthropic messages API.
type Completer struct {
	opts     llm.Options
	endpoint string
	http     *http.Client
}

// NewCompleter creates a Claude-backed completion client.
func NewCompleter(opts llm.Options) *Completer {
	// default messages endpoint (public Anthropic)
	endpoint := "https://api.anthropic.com/v1/messages"
	// If you use a proxy/bedrock/vertex, set endpoint via CLAUDE_API_ENDPOINT env var
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Completer{
		opts:     opts,
		endpoint: endpoint,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

// Complete sends the prompt and returns the raw model text. Transport
// failures and transient server statuses are retried with backoff; the
// prompt is resent verbatim.
func (c *Completer) Complete(ctx context.Context, prompt types.AnalysisPrompt) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	apiKey := os.Getenv("CLAUDE_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return "", errors.New("CLAUDE_API_KEY missing")
	}

	reqBody := map[string]any{
		"model":      c.opts.Model,
		"max_tokens": c.opts.MaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Text},
		},
		"temperature": c.opts.Temperature,
	}
	bb, _ := json.Marshal(reqBody)

	return llm.WithRetry(ctx, c.opts, func(ctx context.Context) (string, error) {
		return c.doOnce(ctx, apiKey, bb)
	})
}

func (c *Completer) doOnce(ctx context.Context, apiKey string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode >= 300 {
		return "", &llm.ServiceError{
			Provider:   "claude",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBytes)),
		}
	}

	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBytes, &r); err != nil {
		return "", fmt.Errorf("claude: decode response: %w", err)
	}

	var b strings.Builder
	for _, part := range r.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", &llm.ServiceError{Provider: "claude", StatusCode: resp.StatusCode, Message: "empty completion"}
	}
	return out, nil
}
