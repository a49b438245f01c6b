// Package smartapi is a client for the Angel One SmartAPI REST service:
// TOTP-based login, historical candle data and option-chain snapshots.
package smartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"llm-market-analyst/internal/interfaces"
)

const (
	loginPath       = "/rest/auth/angelbroking/user/v1/loginByPassword"
	candleDataPath  = "/rest/secure/angelbroking/historical/v1/getCandleData"
	optionGreekPath = "/rest/secure/angelbroking/marketData/v1/optionGreek"
)

type Params struct {
	BaseURL      string
	APIKey       string
	ClientCode   string
	Password     string
	TOTPSecret   string
	Timeout      time.Duration
	SessionTTL   time.Duration
	ExpiryMargin time.Duration
}

type Client struct {
	p        Params
	http     *http.Client
	sessions *SessionManager
}

var _ interfaces.MarketData = (*Client)(nil)

func New(p Params) *Client {
	hc := &http.Client{Timeout: p.Timeout}
	return &Client{
		p:        p,
		http:     hc,
		sessions: newSessionManager(p, hc),
	}
}

// Sessions exposes the session manager so callers can invalidate or
// pre-warm a session explicitly.
func (c *Client) Sessions() *SessionManager { return c.sessions }

// apiResponse is the envelope every SmartAPI endpoint wraps its payload in.
type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

// Session token rejections come back with these codes (or a bare 401).
func authRejected(httpStatus int, errorCode string) bool {
	if httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden {
		return true
	}
	switch errorCode {
	case "AG8001", "AG8002", "AG8003":
		return true
	}
	return false
}

// postJSON sends one SmartAPI request and decodes the envelope.
// authToken is empty for the login call itself.
func postJSON(ctx context.Context, hc *http.Client, p Params, path, authToken string, body any) (*apiResponse, int, error) {
	bb, err := json.Marshal(body)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(bb))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-PrivateKey", p.APIKey)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: "read " + path, Err: err}
	}

	var out apiResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, resp.StatusCode, &NetworkError{Op: "decode " + path, Err: err}
	}
	return &out, resp.StatusCode, nil
}

// postSecure runs an authenticated call with the bounded auth-retry
// policy: on a rejected session token the session is invalidated and the
// call retried once with a fresh login; a second rejection is fatal.
func (c *Client) postSecure(ctx context.Context, path string, body any) (*apiResponse, error) {
	const maxAttempts = 2

	var lastAuthErr *AuthError
	for attempt := 0; attempt < maxAttempts; attempt++ {
		sess, err := c.sessions.EnsureValidSession(ctx)
		if err != nil {
			return nil, err
		}

		resp, httpStatus, err := postJSON(ctx, c.http, c.p, path, sess.SessionToken, body)
		if err != nil {
			return nil, err
		}

		if authRejected(httpStatus, resp.ErrorCode) {
			lastAuthErr = &AuthError{Code: resp.ErrorCode, Message: resp.Message}
			c.sessions.Invalidate()
			continue
		}
		return resp, nil
	}
	return nil, lastAuthErr
}
