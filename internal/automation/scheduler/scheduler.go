package scheduler

import (
	"context"
	"log"
	"time"

	"fieldcrm-backend/internal/automation/usecase"
)

// Scheduler drives the automation engine on fixed intervals: a short
// mailbox poll loop and a slower sweep loop for follow-ups and
// reminders. Each loop runs once immediately on start.
type Scheduler struct {
	engine        *usecase.AutomationUsecase
	pollInterval  time.Duration
	sweepInterval time.Duration
	stopChan      chan struct{}
}

func NewScheduler(engine *usecase.AutomationUsecase, pollInterval, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		engine:        engine,
		pollInterval:  pollInterval,
		sweepInterval: sweepInterval,
		stopChan:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Starting (poll every %s, sweep every %s)", s.pollInterval, s.sweepInterval)
	go s.runLoop("poll", s.pollInterval, s.engine.ProcessAllTenants)
	go s.runLoop("follow-up", s.sweepInterval, s.engine.RunFollowUps)
	go s.runLoop("reminder", s.sweepInterval, s.engine.RunReminders)
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("[Scheduler] Stopped")
}

func (s *Scheduler) runLoop(name string, interval time.Duration, fn func(context.Context)) {
	fn(context.Background())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fn(context.Background())
		case <-s.stopChan:
			log.Printf("[Scheduler] %s loop stopped", name)
			return
		}
	}
}
