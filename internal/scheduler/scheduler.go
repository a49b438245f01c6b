// Package scheduler re-runs the analysis pipeline on a cron schedule
// (watch mode).
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"llm-market-analyst/internal/interfaces"
	"llm-market-analyst/internal/logger"
	"llm-market-analyst/internal/types"
)

// Scheduler drives repeated analyses of one instrument.
type Scheduler struct {
	cron   *cron.Cron
	engine interfaces.Engine
	req    types.AnalysisRequest
}

func New(eng interfaces.Engine, req types.AnalysisRequest) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		engine: eng,
		req:    req,
	}
}

// Register adds the analysis task under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info(context.Background(), "Scheduler started", "symbol", s.req.Symbol)
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	logger.Info(context.Background(), "Scheduler stopped")
}

// RunNow executes the analysis task immediately (manual trigger).
func (s *Scheduler) RunNow() {
	s.run()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rep, err := s.engine.Analyze(ctx, s.req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Scheduled analysis failed", err, "symbol", s.req.Symbol)
		return
	}

	b, _ := json.Marshal(rep)
	fmt.Println(string(b))
}
