package smartapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchOptionChain(t *testing.T) {
	f := newFakeSmartAPI(t)
	f.optionHandler = func(w http.ResponseWriter, r *http.Request) {
		var req optionGreekRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "RELIANCE", req.Name)
		assert.Equal(t, "28AUG2025", req.ExpiryDate)

		writeEnvelope(w, http.StatusOK, true, "", "SUCCESS", []map[string]string{
			{
				"tradingSymbol":     "RELIANCE28AUG251320CE",
				"optionType":        "CE",
				"strikePrice":       "1320.00",
				"openInterest":      "540000",
				"impliedVolatility": "22.51",
				"delta":             "0.52",
				"gamma":             "0.0041",
				"theta":             "-1.23",
				"vega":              "0.91",
			},
			{
				"tradingSymbol":     "RELIANCE28AUG251320PE",
				"optionType":        "PE",
				"strikePrice":       "1320.00",
				"openInterest":      "610000",
				"impliedVolatility": "n/a",
				"delta":             "-0.48",
			},
		})
	}
	c := New(testParams(f.srv.URL))

	expiry := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	quotes, err := c.FetchOptionChain(context.Background(), "RELIANCE", expiry)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, 1320.0, quotes[0].Strike)
	assert.Equal(t, int64(540000), quotes[0].OpenInterest)
	assert.Equal(t, 22.51, quotes[0].IV)
	assert.Equal(t, -1.23, quotes[0].Theta)

	// Unparseable numeric fields degrade to zero instead of failing the snapshot.
	assert.Equal(t, 0.0, quotes[1].IV)
	assert.Equal(t, -0.48, quotes[1].Delta)
}

func TestFetchOptionChainRejected(t *testing.T) {
	f := newFakeSmartAPI(t)
	f.optionHandler = func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, "AB2001", "Invalid expiry", nil)
	}
	c := New(testParams(f.srv.URL))

	_, err := c.FetchOptionChain(context.Background(), "RELIANCE", time.Now())
	var noData *NoDataError
	require.True(t, errors.As(err, &noData))
}

func TestNextMonthlyExpiry(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	cases := []struct {
		now  string
		want string
	}{
		{"2024-01-10", "2024-01-25"}, // before this month's last Thursday
		{"2024-01-25", "2024-01-25"}, // expiry day itself still counts
		{"2024-01-26", "2024-02-29"}, // rolls to February, whose last day is a Thursday
		{"2025-08-29", "2025-09-25"}, // August 2025 expired on the 28th
		{"2025-12-26", "2026-01-29"}, // year boundary
	}
	for _, tc := range cases {
		now, err := time.ParseInLocation("2006-01-02", tc.now, ist)
		require.NoError(t, err)

		got := NextMonthlyExpiry(now)
		assert.Equal(t, tc.want, got.Format("2006-01-02"), "now=%s", tc.now)
		assert.Equal(t, time.Thursday, got.Weekday())
	}
}
