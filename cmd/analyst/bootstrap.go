package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"llm-market-analyst/internal/broker/brokerobs"
	"llm-market-analyst/internal/broker/smartapi"
	"llm-market-analyst/internal/engine"
	"llm-market-analyst/internal/engine/engineobs"
	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/llm"
	"llm-market-analyst/internal/llm/canned"
	"llm-market-analyst/internal/llm/claude"
	"llm-market-analyst/internal/llm/llmobs"
	"llm-market-analyst/internal/llm/openai"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/reportlog"
	"llm-market-analyst/internal/store"
	"llm-market-analyst/internal/trace"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldReports compresses old report log files if retention is configured
func compressOldReports(ctx context.Context, cfg *store.Config) {
	days := cfg.ReportLog.RetentionDays
	if v := os.Getenv("ANALYST_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		days = n
	}
	if err := reportlog.CompressOlder(days); err != nil {
		logger.Warn(ctx, "Failed to compress old report logs", "error", err)
	}
}

// loadCredentials reads the SmartAPI credentials from the environment;
// nothing sensitive lives in the config file.
func loadCredentials() (apiKey, clientCode, password, totpSecret string, err error) {
	apiKey = os.Getenv("ANGELONE_API_KEY")
	clientCode = os.Getenv("ANGELONE_CLIENT_ID")
	password = os.Getenv("ANGELONE_PASSWORD")
	totpSecret = os.Getenv("ANGELONE_TOTP_SECRET")

	var missing []string
	if apiKey == "" {
		missing = append(missing, "ANGELONE_API_KEY")
	}
	if clientCode == "" {
		missing = append(missing, "ANGELONE_CLIENT_ID")
	}
	if password == "" {
		missing = append(missing, "ANGELONE_PASSWORD")
	}
	if totpSecret == "" {
		missing = append(missing, "ANGELONE_TOTP_SECRET")
	}
	if len(missing) > 0 {
		return "", "", "", "", fmt.Errorf("missing credentials in environment: %s", strings.Join(missing, ", "))
	}
	return apiKey, clientCode, password, totpSecret, nil
}

// initializeMarketData initializes the SmartAPI client with observability
func initializeMarketData(ctx context.Context, cfg *store.Config) (interfaces.MarketData, error) {
	apiKey, clientCode, password, totpSecret, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	client := smartapi.New(smartapi.Params{
		BaseURL:      cfg.SmartAPI.BaseURL,
		APIKey:       apiKey,
		ClientCode:   clientCode,
		Password:     password,
		TOTPSecret:   totpSecret,
		Timeout:      cfg.SmartAPITimeout(),
		SessionTTL:   cfg.SessionTTL(),
		ExpiryMargin: cfg.ExpiryMargin(),
	})

	// Wrap with observability middleware
	return brokerobs.Wrap(client), nil
}

// initializeCompleter initializes the LLM completion client with observability
func initializeCompleter(ctx context.Context, cfg *store.Config) interfaces.Completer {
	var completer interfaces.Completer

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - model calls are canned")
		return llmobs.Wrap(canned.NewCompleter())
	}

	opts := llm.OptionsFromConfig(cfg)
	switch cfg.LLM.Provider {
	case "OPENAI":
		completer = openai.NewCompleter(opts)
	case "CLAUDE":
		completer = claude.NewCompleter(opts)
	default:
		completer = canned.NewCompleter()
		logger.Warn(ctx, "No LLM provider configured - using canned completer")
	}

	// Wrap with observability middleware
	return llmobs.Wrap(completer)
}

// initializeEngine initializes the analysis engine with observability
func initializeEngine(cfg *store.Config, md interfaces.MarketData, completer interfaces.Completer) interfaces.Engine {
	return engineobs.Wrap(engine.New(cfg, md, completer))
}
