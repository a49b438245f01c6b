package smartapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-market-analyst/internal/totp"
)

// testSecret is a well-formed base32 TOTP secret; the generated codes
// are never checked by the fake server.
const testSecret = "JBSWY3DPEHPK3PXP"

type fakeSmartAPI struct {
	srv *httptest.Server

	logins      atomic.Int64
	rejectLogin bool

	candleHandler func(w http.ResponseWriter, r *http.Request)
	optionHandler func(w http.ResponseWriter, r *http.Request)
}

func newFakeSmartAPI(t *testing.T) *fakeSmartAPI {
	t.Helper()
	f := &fakeSmartAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "C12345", req.ClientCode)
		assert.NotEmpty(t, req.TOTP)

		if f.rejectLogin {
			writeEnvelope(w, http.StatusOK, false, "AB1007", "Invalid totp", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", "SUCCESS", map[string]string{
			"jwtToken":     "jwt-token",
			"refreshToken": "refresh-token",
			"feedToken":    "feed-token",
		})
	})
	mux.HandleFunc(candleDataPath, func(w http.ResponseWriter, r *http.Request) {
		if f.candleHandler == nil {
			t.Fatalf("unexpected candle request")
		}
		f.candleHandler(w, r)
	})
	mux.HandleFunc(optionGreekPath, func(w http.ResponseWriter, r *http.Request) {
		if f.optionHandler == nil {
			t.Fatalf("unexpected option request")
		}
		f.optionHandler(w, r)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func writeEnvelope(w http.ResponseWriter, httpStatus int, ok bool, code, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    ok,
		"message":   msg,
		"errorcode": code,
		"data":      data,
	})
}

func testParams(baseURL string) Params {
	return Params{
		BaseURL:      baseURL,
		APIKey:       "api-key",
		ClientCode:   "C12345",
		Password:     "1234",
		TOTPSecret:   testSecret,
		Timeout:      5 * time.Second,
		SessionTTL:   8 * time.Hour,
		ExpiryMargin: 5 * time.Minute,
	}
}

func TestSessionReusedWhileValid(t *testing.T) {
	f := newFakeSmartAPI(t)
	c := New(testParams(f.srv.URL))

	s1, err := c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", s1.SessionToken)
	assert.Equal(t, "feed-token", s1.FeedToken)

	s2, err := c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, int64(1), f.logins.Load())
}

func TestSessionExpiryMarginForcesRelogin(t *testing.T) {
	f := newFakeSmartAPI(t)
	c := New(testParams(f.srv.URL))

	_, err := c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)

	// Jump the clock to just inside the margin before expiry.
	c.sessions.now = func() time.Time {
		return time.Now().Add(8*time.Hour - 4*time.Minute)
	}

	_, err = c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.logins.Load())
}

func TestInvalidateForcesRelogin(t *testing.T) {
	f := newFakeSmartAPI(t)
	c := New(testParams(f.srv.URL))

	_, err := c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)

	c.Sessions().Invalidate()

	_, err = c.Sessions().EnsureValidSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.logins.Load())
}

func TestLoginRejectedCredentials(t *testing.T) {
	f := newFakeSmartAPI(t)
	f.rejectLogin = true
	c := New(testParams(f.srv.URL))

	_, err := c.Sessions().Login(context.Background())
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "AB1007", authErr.Code)
}

func TestLoginInvalidTOTPSecret(t *testing.T) {
	f := newFakeSmartAPI(t)
	p := testParams(f.srv.URL)
	p.TOTPSecret = "not base32!"
	c := New(p)

	_, err := c.Sessions().Login(context.Background())
	var secretErr *totp.InvalidSecretError
	require.True(t, errors.As(err, &secretErr))
	assert.Equal(t, int64(0), f.logins.Load(), "no network call with a bad secret")
}

func TestLoginNetworkFailure(t *testing.T) {
	f := newFakeSmartAPI(t)
	p := testParams(f.srv.URL)
	f.srv.Close()
	c := New(p)

	_, err := c.Sessions().Login(context.Background())
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
}
