package smartapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/totp"
	"llm-market-analyst/internal/types"
)

// SessionManager owns the login lifecycle. All transitions run under one
// mutex so concurrent analyses never race two logins against the same
// credentials; the upstream endpoint treats that as conflicting sessions.
type SessionManager struct {
	p    Params
	http *http.Client
	now  func() time.Time

	mu      sync.Mutex
	session *types.Session
}

func newSessionManager(p Params, hc *http.Client) *SessionManager {
	return &SessionManager{p: p, http: hc, now: time.Now}
}

type loginRequest struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	TOTP       string `json:"totp"`
}

type loginData struct {
	JWTToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// Login always performs a fresh login and replaces the cached session.
func (sm *SessionManager) Login(ctx context.Context) (*types.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.loginLocked(ctx)
}

// EnsureValidSession returns the cached session when it is still inside
// the conservative expiry window, otherwise re-logs in.
func (sm *SessionManager) EnsureValidSession(ctx context.Context) (*types.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.session != nil && sm.now().Before(sm.session.ExpiresAt.Add(-sm.p.ExpiryMargin)) {
		return sm.session, nil
	}
	return sm.loginLocked(ctx)
}

// Invalidate drops the cached session; the next EnsureValidSession call
// forces a fresh login. Called by any downstream call that sees an
// auth-rejected response.
func (sm *SessionManager) Invalidate() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.session = nil
}

func (sm *SessionManager) loginLocked(ctx context.Context) (*types.Session, error) {
	ctx, span := trace.StartSpan(ctx, "smartapi.login")
	defer span.End()

	issuedAt := sm.now()
	code, err := totp.Generate(sm.p.TOTPSecret, issuedAt)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "Authenticating with SmartAPI", "client_code", sm.p.ClientCode)

	resp, httpStatus, err := postJSON(ctx, sm.http, sm.p, loginPath, "", loginRequest{
		ClientCode: sm.p.ClientCode,
		Password:   sm.p.Password,
		TOTP:       code,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Status || httpStatus >= 400 {
		return nil, &AuthError{Code: resp.ErrorCode, Message: resp.Message}
	}

	var data loginData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, &NetworkError{Op: "decode login response", Err: err}
	}
	if data.JWTToken == "" {
		return nil, &AuthError{Message: "login response missing session token"}
	}

	sm.session = &types.Session{
		SessionToken: data.JWTToken,
		RefreshToken: data.RefreshToken,
		FeedToken:    data.FeedToken,
		ClientCode:   sm.p.ClientCode,
		IssuedAt:     issuedAt,
		ExpiresAt:    issuedAt.Add(sm.p.SessionTTL),
	}

	logger.Info(ctx, "SmartAPI login successful",
		"client_code", sm.p.ClientCode,
		"expires_at", sm.session.ExpiresAt.Format(time.RFC3339),
	)
	return sm.session, nil
}
