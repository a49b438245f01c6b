package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"llm-market-analyst/internal/types"
)

type Config struct {
	Mode string `yaml:"mode"` // DRY_RUN or LIVE

	Market struct {
		Exchange    string `yaml:"exchange"`
		Symbol      string `yaml:"symbol"`
		SymbolToken string `yaml:"symbol_token"`
		Interval    string `yaml:"interval"`
		Days        int    `yaml:"days"`
	} `yaml:"market"`

	SmartAPI struct {
		BaseURL             string `yaml:"base_url"`
		TimeoutSeconds      int    `yaml:"timeout_seconds"`
		SessionTTLMinutes   int    `yaml:"session_ttl_minutes"`
		ExpiryMarginMinutes int    `yaml:"expiry_margin_minutes"`
	} `yaml:"smartapi"`

	LLM struct {
		Provider       string  `yaml:"provider"` // CLAUDE, OPENAI or CANNED
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxRetries     int     `yaml:"max_retries"`
		BackoffMillis  int     `yaml:"backoff_ms"`
	} `yaml:"llm"`

	Analysis struct {
		IncludeOptions  bool    `yaml:"include_options"`
		StrikeWindowPct float64 `yaml:"strike_window_pct"`
	} `yaml:"analysis"`

	ReportLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"report_log"`

	Schedule struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"schedule"`
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if !types.ValidInterval(c.Market.Interval) {
		return fmt.Errorf("invalid market.interval '%s'", c.Market.Interval)
	}
	if c.Market.Days <= 0 {
		return fmt.Errorf("market.days must be positive, got %d", c.Market.Days)
	}
	switch c.LLM.Provider {
	case "CLAUDE", "OPENAI", "CANNED", "":
	default:
		return fmt.Errorf("llm.provider must be 'CLAUDE', 'OPENAI' or 'CANNED', got '%s'", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	if c.SmartAPI.ExpiryMarginMinutes >= c.SmartAPI.SessionTTLMinutes {
		return fmt.Errorf("smartapi.expiry_margin_minutes (%d) must be below session_ttl_minutes (%d)",
			c.SmartAPI.ExpiryMarginMinutes, c.SmartAPI.SessionTTLMinutes)
	}
	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron required when schedule is enabled")
	}
	return nil
}

func (c *Config) SmartAPITimeout() time.Duration {
	return time.Duration(c.SmartAPI.TimeoutSeconds) * time.Second
}
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SmartAPI.SessionTTLMinutes) * time.Minute
}
func (c *Config) ExpiryMargin() time.Duration {
	return time.Duration(c.SmartAPI.ExpiryMarginMinutes) * time.Minute
}
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
func (c *Config) LLMBackoff() time.Duration {
	return time.Duration(c.LLM.BackoffMillis) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Mode == "" {
		c.Mode = "DRY_RUN"
	}
	if c.Market.Exchange == "" {
		c.Market.Exchange = "NSE"
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "RELIANCE"
	}
	if c.Market.SymbolToken == "" {
		c.Market.SymbolToken = "2885"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = types.IntervalOneDay
	}
	if c.Market.Days == 0 {
		c.Market.Days = 30
	}
	if c.SmartAPI.BaseURL == "" {
		c.SmartAPI.BaseURL = "https://apiconnect.angelone.in"
	}
	if c.SmartAPI.TimeoutSeconds == 0 {
		c.SmartAPI.TimeoutSeconds = 15
	}
	if c.SmartAPI.SessionTTLMinutes == 0 {
		c.SmartAPI.SessionTTLMinutes = 480
	}
	if c.SmartAPI.ExpiryMarginMinutes == 0 {
		c.SmartAPI.ExpiryMarginMinutes = 5
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "claude-sonnet-4-20250514"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 2
	}
	if c.LLM.BackoffMillis == 0 {
		c.LLM.BackoffMillis = 1000
	}
	if c.Analysis.StrikeWindowPct == 0 {
		c.Analysis.StrikeWindowPct = 5
	}
	if c.ReportLog.Dir == "" {
		c.ReportLog.Dir = "reports"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
