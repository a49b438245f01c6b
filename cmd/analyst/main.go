package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/reportlog"
	"llm-market-analyst/internal/scheduler"
	"llm-market-analyst/internal/trace"
	"llm-market-analyst/internal/types"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to config file")
		symbol      = flag.String("symbol", "", "stock symbol (default from config)")
		token       = flag.String("token", "", "SmartAPI symbol token (default from config)")
		exchange    = flag.String("exchange", "", "exchange, NSE or BSE (default from config)")
		interval    = flag.String("interval", "", "candle interval (default from config)")
		days        = flag.Int("days", 0, "days of history (default from config)")
		withOptions = flag.Bool("options", false, "include a near-the-money options chain snapshot")
		watch       = flag.Bool("watch", false, "keep running and re-analyze on the configured cron schedule")
	)
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer trace.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		os.Exit(1)
	}

	reportlog.SetDir(cfg.ReportLog.Dir)
	compressOldReports(ctx, cfg)

	md, err := initializeMarketData(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Market data setup failed", err)
		os.Exit(1)
	}
	completer := initializeCompleter(ctx, cfg)
	eng := initializeEngine(cfg, md, completer)

	req := types.AnalysisRequest{
		Symbol:         *symbol,
		SymbolToken:    *token,
		Exchange:       *exchange,
		Interval:       *interval,
		Days:           *days,
		IncludeOptions: *withOptions || cfg.Analysis.IncludeOptions,
	}

	if *watch || cfg.Schedule.Enabled {
		runWatch(ctx, cfg.Schedule.Cron, eng, req)
		return
	}

	rep, err := eng.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Analysis failed", err, "symbol", req.Symbol)
		os.Exit(1)
	}

	b, _ := json.MarshalIndent(rep, "", "  ")
	fmt.Println(string(b))
}

func runWatch(ctx context.Context, cronSpec string, eng interfaces.Engine, req types.AnalysisRequest) {
	if cronSpec == "" {
		// weekdays shortly after market open IST
		cronSpec = "30 9 * * 1-5"
	}

	sched := scheduler.New(eng, req)
	if err := sched.Register(cronSpec); err != nil {
		logger.ErrorWithErr(ctx, "Failed to register schedule", err, "cron", cronSpec)
		os.Exit(1)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	sched.Start()
	logger.Info(ctx, "Watch mode started", "symbol", req.Symbol, "cron", cronSpec)
	sched.RunNow()

	<-sigc
	logger.Info(ctx, "Shutting down...")
	sched.Stop()
}
