package application

import (
	"context"
	"log"
	"time"

	"risk-radar/internal/radar/config"
)

// Scheduler drives the engine cadences: hourly calendar polls, five
// minute news polls, and a one minute risk recalculation gated on an
// event being imminent.
type Scheduler struct {
	engine    *Engine
	schedule  config.Schedule
	logger    *log.Logger
	proximity time.Duration
}

// NewScheduler constructs a Scheduler.
func NewScheduler(engine *Engine, schedule config.Schedule, logger *log.Logger) *Scheduler {
	return &Scheduler{
		engine:    engine,
		schedule:  schedule,
		logger:    logger,
		proximity: time.Duration(schedule.ProximityThresholdHours) * time.Hour,
	}
}

// Start launches the cadence loops. They run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.engine == nil {
		return
	}
	go s.loop(ctx, time.Duration(s.schedule.CalendarPollSeconds)*time.Second, s.calendarPoll)
	go s.loop(ctx, time.Duration(s.schedule.NewsPollSeconds)*time.Second, s.newsPoll)
	go s.loop(ctx, time.Duration(s.schedule.RiskRecalcSeconds)*time.Second, s.riskRecalc)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, job func(context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (s *Scheduler) calendarPoll(ctx context.Context) {
	if err := s.engine.RefreshAll(ctx); err != nil {
		s.logger.Printf("scheduler: calendar poll: %v", err)
		return
	}
	if _, err := s.engine.RunChecks(ctx); err != nil {
		s.logger.Printf("scheduler: calendar poll checks: %v", err)
	}
}

func (s *Scheduler) newsPoll(ctx context.Context) {
	if err := s.engine.RefreshNews(ctx); err != nil {
		s.logger.Printf("scheduler: news poll: %v", err)
		return
	}
	if _, err := s.engine.RunChecks(ctx); err != nil {
		s.logger.Printf("scheduler: news poll checks: %v", err)
	}
}

// riskRecalc only runs the checks when an event is close enough to move
// scores between ticks.
func (s *Scheduler) riskRecalc(ctx context.Context) {
	if !s.engine.HasImminentEvent(s.proximity) {
		return
	}
	if _, err := s.engine.RunChecks(ctx); err != nil {
		s.logger.Printf("scheduler: risk recalc: %v", err)
	}
}
