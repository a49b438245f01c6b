package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"llm-market-analyst/internal/llm"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

type Completer struct {
	opts     llm.Options
	endpoint string
	http     *http.Client
}

func NewCompleter(opts llm.Options) *Completer {
	endpoint := "https://api.openai.com/v1/chat/completions"
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Completer{
		opts:     opts,
		endpoint: endpoint,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

func (c *Completer) Complete(ctx context.Context, prompt types.AnalysisPrompt) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", errors.New("OPENAI_API_KEY missing")
	}

	body := map[string]any{
		"model": c.opts.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt.Text},
		},
		"temperature": c.opts.Temperature,
		"max_tokens":  c.opts.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	return llm.WithRetry(ctx, c.opts, func(ctx context.Context) (string, error) {
		return c.doOnce(ctx, apiKey, bb)
	})
}

func (c *Completer) doOnce(ctx context.Context, apiKey string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
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
			Provider:   "openai",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBytes)),
		}
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &r); err != nil {
		return "", err
	}

	if len(r.Choices) == 0 {
		return "", &llm.ServiceError{Provider: "openai", StatusCode: resp.StatusCode, Message: "no choices"}
	}

	out := strings.TrimSpace(r.Choices[0].Message.Content)
	if out == "" {
		return "", &llm.ServiceError{Provider: "openai", StatusCode: resp.StatusCode, Message: "empty completion"}
	}
	return out, nil
}
