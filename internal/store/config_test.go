package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "mode: DRY_RUN\n"))
	require.NoError(t, err)

	assert.Equal(t, "NSE", cfg.Market.Exchange)
	assert.Equal(t, "RELIANCE", cfg.Market.Symbol)
	assert.Equal(t, "2885", cfg.Market.SymbolToken)
	assert.Equal(t, "ONE_DAY", cfg.Market.Interval)
	assert.Equal(t, 30, cfg.Market.Days)
	assert.Equal(t, "https://apiconnect.angelone.in", cfg.SmartAPI.BaseURL)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.ExpiryMargin())
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, time.Second, cfg.LLMBackoff())
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 5.0, cfg.Analysis.StrikeWindowPct)
	assert.Equal(t, "reports", cfg.ReportLog.Dir)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
mode: LIVE
market:
  exchange: NFO
  symbol: TCS
  symbol_token: "11536"
  interval: FIVE_MINUTE
  days: 7
smartapi:
  session_ttl_minutes: 120
  expiry_margin_minutes: 10
llm:
  provider: OPENAI
  model: gpt-4o
analysis:
  include_options: true
  strike_window_pct: 2.5
schedule:
  enabled: true
  cron: "30 9 * * 1-5"
`))
	require.NoError(t, err)

	assert.Equal(t, "LIVE", cfg.Mode)
	assert.Equal(t, "FIVE_MINUTE", cfg.Market.Interval)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, 10*time.Minute, cfg.ExpiryMargin())
	assert.Equal(t, "OPENAI", cfg.LLM.Provider)
	assert.True(t, cfg.Analysis.IncludeOptions)
	assert.Equal(t, 2.5, cfg.Analysis.StrikeWindowPct)
	assert.Equal(t, "30 9 * * 1-5", cfg.Schedule.Cron)
}

func TestLoadConfigRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad mode", "mode: PAPER\n", "invalid mode"},
		{"bad interval", "market:\n  interval: TWO_DAY\n", "market.interval"},
		{"negative days", "market:\n  days: -3\n", "market.days"},
		{"bad provider", "llm:\n  provider: GEMINI\n", "llm.provider"},
		{"margin at ttl", "smartapi:\n  session_ttl_minutes: 30\n  expiry_margin_minutes: 30\n", "expiry_margin_minutes"},
		{"schedule without cron", "schedule:\n  enabled: true\n", "schedule.cron"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
