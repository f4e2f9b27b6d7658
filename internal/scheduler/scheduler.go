// Package scheduler re-runs the fund jobs on a cron schedule and answers
// chat commands.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"ConcentrationPanel/internal/fund"
	"ConcentrationPanel/internal/notifier"
)

// Scheduler manages the cron task that runs every fund.
type Scheduler struct {
	Cron     *cron.Cron
	Fund     *fund.Manager
	Notifier notifier.Notifier
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler. A nil notifier disables notifications.
func NewScheduler(ctx context.Context, fm *fund.Manager, n notifier.Notifier) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Fund:     fm,
		Notifier: n,
		Ctx:      ctx,
	}
}

// Register schedules the run task with a six-field (seconds first) cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow runs every fund and sends the summary. It returns false without
// running when another run is still in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.TryLock() {
		log.Println("[WARN] run already in progress, skipping")
		return false
	}
	defer s.running.Unlock()

	log.Println("[INFO] running all funds")
	summary, err := s.Fund.RunAll(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] run: %v", err)
	}
	if summary != nil {
		s.trySend(notifier.FormatRunSummary(summary))
	}
	return true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		go s.RunNow()
		return "run started"
	case "/status":
		state := s.Fund.GetState()
		return notifier.FormatRunState(&state)
	default:
		return "commands:\n• /run\n• /status"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
