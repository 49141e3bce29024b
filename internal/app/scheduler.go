// Package app runs the server's scheduled jobs.
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron             *cron.Cron
	jobs             *Jobs
	logger           *slog.Logger
	reminderSchedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, reminderSchedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:             c,
		jobs:             jobs,
		logger:           logger,
		reminderSchedule: reminderSchedule,
	}
}

// Start registers the jobs and starts the cron scheduler. It fails if a
// schedule does not parse.
func (s *Scheduler) Start() error {
	if s.reminderSchedule == "" {
		s.logger.Info("debt reminders disabled")
	} else {
		if _, err := s.cron.AddFunc(s.reminderSchedule, s.jobs.SendDebtReminders); err != nil {
			return err
		}
		s.logger.Info("scheduled debt reminder job", "schedule", s.reminderSchedule)
	}

	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
