package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"skilltracker/backend/utils"
)

// SessionPurger removes refresh-token sessions that are past their expiry.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs background maintenance.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    SessionPurger
	log       *utils.Logger
}

func New(purger SessionPurger, log *utils.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		log:       log.With("component", "scheduler"),
	}
}

// Start registers the session cleanup on cronExpr and starts without blocking.
func (s *Scheduler) Start(cronExpr string) error {
	if _, err := s.scheduler.Cron(cronExpr).Do(s.PurgeSessions); err != nil {
		return fmt.Errorf("schedule session cleanup %q: %w", cronExpr, err)
	}
	s.scheduler.StartAsync()
	s.log.Info("Scheduler started", "session_cleanup", cronExpr)
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeSessions is one cleanup run.
func (s *Scheduler) PurgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.purger.PurgeExpiredSessions(ctx)
	if err != nil {
		s.log.Error("Session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("Expired sessions purged", "count", n)
	}
}
